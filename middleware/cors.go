package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows the configured comma separated origins. An empty list or "*"
// allows any origin without credentials.
func CORS(origins string) fiber.Handler {
	origins = strings.TrimSpace(origins)
	cfg := cors.Config{
		AllowMethods:  "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization,X-Requested-With",
		ExposeHeaders: "Content-Length",
		MaxAge:        3600,
	}
	if origins == "" || origins == "*" {
		cfg.AllowOrigins = "*"
		return cors.New(cfg)
	}

	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	cfg.AllowOrigins = strings.Join(parts, ",")
	cfg.AllowCredentials = true
	return cors.New(cfg)
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nexus/models"
	"nexus/session"
	"nexus/utils"
)

// bearerToken reads the token from the Authorization header, the
// access_token cookie, or the token query parameter used by websockets.
func bearerToken(c *fiber.Ctx) (string, bool) {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return "", false
		}
		return tokenParts[1], true
	}
	if token := c.Cookies("access_token"); token != "" {
		return token, true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

// Protected authenticates the request and attaches the user and its live
// session to the context.
func Protected(db *gorm.DB, tokens *utils.TokenIssuer, sessions *session.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		// a user who is gone, deactivated or moved to another role loses the
		// session along with the request
		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
			endSession(c, sessions, claims.SessionID)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		if !user.IsActive() {
			endSession(c, sessions, claims.SessionID)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Account is not active",
			})
		}

		if claims.Role != string(user.Role) {
			endSession(c, sessions, claims.SessionID)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Session is no longer valid, sign in again",
			})
		}

		s, err := sessions.Resume(c.UserContext(), claims.SessionID, session.IdentityOf(&user))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Session expired, sign in again",
			})
		}

		c.Locals("user", &user)
		c.Locals("userID", user.ID)
		c.Locals("session", s)
		c.Locals("sessionID", s.ID)

		return c.Next()
	}
}

func endSession(c *fiber.Ctx, sessions *session.Registry, id string) {
	if _, ok := sessions.Get(id); !ok {
		return
	}
	if err := sessions.Close(c.UserContext(), id); err != nil {
		utils.LogError("session_close_failed", err, map[string]interface{}{
			"session_id": id,
		})
	}
}

// RequireRole rejects users whose role is not listed. It must run after
// Protected.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}
		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not have access to this resource",
		})
	}
}

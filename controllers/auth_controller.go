package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"nexus/models"
	"nexus/session"
	"nexus/utils"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	SessionID   string       `json:"session_id"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

type AuthController struct {
	DB       *gorm.DB
	Tokens   *utils.TokenIssuer
	Sessions *session.Registry
	Logger   *logrus.Entry
}

func NewAuthController(db *gorm.DB, tokens *utils.TokenIssuer, sessions *session.Registry, logger *logrus.Entry) *AuthController {
	return &AuthController{
		DB:       db,
		Tokens:   tokens,
		Sessions: sessions,
		Logger:   logger,
	}
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	req.Email = utils.NormalizeEmail(req.Email)

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user models.User
	if err := ac.DB.WithContext(c.UserContext()).Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Account is not active",
		})
	}

	s, err := ac.Sessions.Open(c.UserContext(), session.IdentityOf(&user))
	if err != nil {
		return respondError(c, ac.Logger, err)
	}

	token, expiresAt, err := ac.Tokens.Issue(&user, s.ID)
	if err != nil {
		ac.Sessions.Close(c.UserContext(), s.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	utils.LogEvent("user_login", map[string]interface{}{
		"user_id":    user.ID,
		"role":       user.Role,
		"session_id": s.ID,
		"ip":         c.IP(),
	})

	return c.JSON(AuthResponse{
		AccessToken: token,
		SessionID:   s.ID,
		ExpiresAt:   expiresAt,
		User:        &user,
	})
}

// Logout ends the session: the notification worker stops and the read set
// is forgotten.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	s := currentSession(c)
	if err := ac.Sessions.Close(c.UserContext(), s.ID); err != nil {
		return respondError(c, ac.Logger, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	return c.JSON(fiber.Map{
		"message": "Signed out",
	})
}

func (ac *AuthController) GetCurrentUser(c *fiber.Ctx) error {
	user := currentUser(c)
	s := currentSession(c)

	unread, err := s.Feed.UnreadCount(c.UserContext())
	if err != nil {
		return respondError(c, ac.Logger, err)
	}

	return c.JSON(fiber.Map{
		"user":                 user,
		"session_id":           s.ID,
		"is_manager":           s.Identity.IsManager(),
		"unread_notifications": unread,
	})
}

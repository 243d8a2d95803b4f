package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"nexus/models"
	"nexus/utils"
)

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=leader manager"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Role     *string `json:"role" validate:"omitempty,oneof=leader manager"`
	Status   *string `json:"status" validate:"omitempty,oneof=active inactive"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// UserController is the manager's user administration
type UserController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
	// CheckEmailHost also verifies the e-mail domain accepts mail
	CheckEmailHost bool
}

func NewUserController(db *gorm.DB, logger *logrus.Entry) *UserController {
	return &UserController{
		DB:     db,
		Logger: logger,
	}
}

func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	query := uc.DB.WithContext(c.UserContext()).Order("name")
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return respondError(c, uc.Logger, err)
	}
	return c.JSON(fiber.Map{
		"users": users,
	})
}

func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
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
	if err := utils.ValidateEmail(req.Email, uc.CheckEmailHost); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// deleted accounts keep their address
	var count int64
	if err := uc.DB.WithContext(c.UserContext()).Unscoped().Model(&models.User{}).
		Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return respondError(c, uc.Logger, err)
	}
	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A user with this email already exists",
		})
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return respondError(c, uc.Logger, err)
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Status:       models.UserActive,
	}
	if err := uc.DB.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		return respondError(c, uc.Logger, err)
	}

	uc.Logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User created")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created",
		"user":    user,
	})
}

func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user models.User
	if err := uc.DB.WithContext(c.UserContext()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return respondError(c, uc.Logger, err)
	}

	self := currentUser(c).ID == user.ID
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Role != nil && models.Role(*req.Role) != user.Role {
		if self {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You cannot change your own role",
			})
		}
		updates["role"] = models.Role(*req.Role)
	}
	if req.Status != nil && models.UserStatus(*req.Status) != user.Status {
		if self {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You cannot deactivate your own account",
			})
		}
		updates["status"] = models.UserStatus(*req.Status)
	}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			return respondError(c, uc.Logger, err)
		}
		updates["password_hash"] = hash
	}

	if len(updates) > 0 {
		if err := uc.DB.WithContext(c.UserContext()).Model(&user).Updates(updates).Error; err != nil {
			return respondError(c, uc.Logger, err)
		}
		if err := uc.DB.WithContext(c.UserContext()).First(&user, id).Error; err != nil {
			return respondError(c, uc.Logger, err)
		}
	}

	return c.JSON(fiber.Map{
		"message": "User updated",
		"user":    user,
	})
}

func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if currentUser(c).ID == id {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You cannot delete your own account",
		})
	}

	result := uc.DB.WithContext(c.UserContext()).Delete(&models.User{}, id)
	if result.Error != nil {
		return respondError(c, uc.Logger, result.Error)
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	uc.Logger.WithField("user_id", id).Info("User deleted")
	return c.JSON(fiber.Map{
		"message": "User deleted",
	})
}

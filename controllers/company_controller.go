package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"nexus/models"
	"nexus/utils"
)

type CreateCompanyRequest struct {
	Name   string `json:"name" validate:"required,max=200"`
	TaxID  string `json:"tax_id" validate:"omitempty,max=32"`
	Sector string `json:"sector" validate:"omitempty,max=100"`
}

type CompanyController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewCompanyController(db *gorm.DB, logger *logrus.Entry) *CompanyController {
	return &CompanyController{
		DB:     db,
		Logger: logger,
	}
}

func (cc *CompanyController) GetCompanies(c *fiber.Ctx) error {
	var companies []models.Company
	if err := cc.DB.WithContext(c.UserContext()).Order("name").Find(&companies).Error; err != nil {
		return respondError(c, cc.Logger, err)
	}
	return c.JSON(fiber.Map{
		"companies": companies,
	})
}

func (cc *CompanyController) GetCompany(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var company models.Company
	if err := cc.DB.WithContext(c.UserContext()).First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Company not found",
			})
		}
		return respondError(c, cc.Logger, err)
	}
	return c.JSON(fiber.Map{
		"company": company,
	})
}

func (cc *CompanyController) CreateCompany(c *fiber.Ctx) error {
	var req CreateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	req.Name = strings.TrimSpace(req.Name)

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var count int64
	if err := cc.DB.WithContext(c.UserContext()).Model(&models.Company{}).
		Where("LOWER(name) = LOWER(?)", req.Name).Count(&count).Error; err != nil {
		return respondError(c, cc.Logger, err)
	}
	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A company with this name already exists",
		})
	}

	company := models.Company{Name: req.Name, TaxID: req.TaxID, Sector: req.Sector}
	if err := cc.DB.WithContext(c.UserContext()).Create(&company).Error; err != nil {
		return respondError(c, cc.Logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Company created",
		"company": company,
	})
}

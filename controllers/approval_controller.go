package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"nexus/models"
	"nexus/workflow"
)

type ApproveProjectRequest struct {
	Incentive string `json:"incentive"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ApprovalController is the manager's review queue
type ApprovalController struct {
	DB     *gorm.DB
	Engine *workflow.Engine
	Logger *logrus.Entry
}

func NewApprovalController(db *gorm.DB, engine *workflow.Engine, logger *logrus.Entry) *ApprovalController {
	return &ApprovalController{
		DB:     db,
		Engine: engine,
		Logger: logger,
	}
}

// GetQueue lists projects waiting for a decision, oldest first
func (ac *ApprovalController) GetQueue(c *fiber.Ctx) error {
	statuses := []models.ProjectStatus{models.ProjectPending, models.ProjectInReview}
	if status := models.ProjectStatus(c.Query("status")); status != "" {
		if status != models.ProjectPending && status != models.ProjectInReview {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Only pending and in_review projects are in the queue",
			})
		}
		statuses = []models.ProjectStatus{status}
	}

	var projects []models.Project
	err := ac.DB.WithContext(c.UserContext()).
		Preload("Company").
		Preload("Leader").
		Preload("Stories").
		Where("status IN ?", statuses).
		Order("created_on ASC").
		Find(&projects).Error
	if err != nil {
		return respondError(c, ac.Logger, err)
	}

	return c.JSON(fiber.Map{
		"projects": projects,
		"total":    len(projects),
	})
}

// OpenProject shows a project to the manager and starts its review
func (ac *ApprovalController) OpenProject(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	project, err := ac.Engine.OpenForReview(c.UserContext(), actorOf(c), id)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}

	return c.JSON(fiber.Map{
		"project": project,
	})
}

func (ac *ApprovalController) ApproveProject(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req ApproveProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	approval, err := ac.Engine.ApproveProject(c.UserContext(), actorOf(c), id, req.Incentive)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Project approved",
		"approval": approval,
	})
}

func (ac *ApprovalController) ReturnProject(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req ReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	approval, err := ac.Engine.ReturnProject(c.UserContext(), actorOf(c), id, req.Reason)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Project returned to its leader",
		"approval": approval,
	})
}

func (ac *ApprovalController) RejectProject(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req ReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	approval, err := ac.Engine.RejectProject(c.UserContext(), actorOf(c), id, req.Reason)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Project rejected",
		"approval": approval,
	})
}

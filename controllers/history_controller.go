package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"nexus/models"
	"nexus/workflow"
)

// HistoryStats counts projects by outcome. Approved includes completed and
// pending includes projects in review.
type HistoryStats struct {
	Total     int `json:"total"`
	Approved  int `json:"approved"`
	Pending   int `json:"pending"`
	Rejected  int `json:"rejected"`
	Returned  int `json:"returned"`
	Cancelled int `json:"cancelled"`
}

func historyStats(projects []models.Project) HistoryStats {
	stats := HistoryStats{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case models.ProjectApproved, models.ProjectCompleted:
			stats.Approved++
		case models.ProjectPending, models.ProjectInReview:
			stats.Pending++
		case models.ProjectNoApproved:
			stats.Rejected++
		case models.ProjectReturned:
			stats.Returned++
		case models.ProjectCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

type Cancellation struct {
	ProjectID   uint       `json:"project_id"`
	ProjectName string     `json:"project_name"`
	Reason      string     `json:"reason"`
	CancelledAt *time.Time `json:"cancelled_at"`
}

// HistoryController is the project report
type HistoryController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewHistoryController(db *gorm.DB, logger *logrus.Entry) *HistoryController {
	return &HistoryController{
		DB:     db,
		Logger: logger,
	}
}

// GetHistory lists projects with their progress. company filters by a
// case-insensitive substring of the company name, status by exact status.
func (hc *HistoryController) GetHistory(c *fiber.Ctx) error {
	query := scoped(c, hc.DB.WithContext(c.UserContext())).
		Preload("Company").
		Preload("Leader").
		Preload("Stories").
		Order("projects.created_on DESC")

	if company := strings.TrimSpace(c.Query("company")); company != "" {
		query = query.
			Joins("JOIN companies ON companies.id = projects.company_id").
			Where("LOWER(companies.name) LIKE ?", "%"+strings.ToLower(company)+"%")
	}
	if status := c.Query("status"); status != "" {
		if !models.ProjectStatus(status).Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown status filter",
			})
		}
		query = query.Where("projects.status = ?", status)
	}

	var projects []models.Project
	if err := query.Find(&projects).Error; err != nil {
		return respondError(c, hc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"projects": summarizeAll(projects),
		"stats":    historyStats(projects),
	})
}

func (hc *HistoryController) GetCancellation(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var project models.Project
	err = scoped(c, hc.DB.WithContext(c.UserContext())).First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, hc.Logger, workflow.ErrNotFound)
	}
	if err != nil {
		return respondError(c, hc.Logger, err)
	}
	if project.Status != models.ProjectCancelled {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project was not cancelled",
		})
	}

	out := Cancellation{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		CancelledAt: project.CancelledAt,
	}
	if project.CancellationReason != nil {
		out.Reason = *project.CancellationReason
	}
	return c.JSON(fiber.Map{
		"cancellation": out,
	})
}

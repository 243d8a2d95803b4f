package controller

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"nexus/models"
	"nexus/utils"
	"nexus/workflow"
)

type ProjectRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	CompanyID   uint     `json:"company_id" validate:"required,gt=0"`
	AILevel     string   `json:"ai_level" validate:"required,oneof=low medium high advanced"`
	StartDate   string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	Document    string   `json:"document" validate:"omitempty,max=500"`
	Stories     []string `json:"stories" validate:"required,min=1"`
}

func (r ProjectRequest) input() (workflow.ProjectInput, error) {
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return workflow.ProjectInput{}, &workflow.ValidationError{Field: "start_date", Message: "invalid date"}
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return workflow.ProjectInput{}, &workflow.ValidationError{Field: "end_date", Message: "invalid date"}
	}
	return workflow.ProjectInput{
		Name:        r.Name,
		Description: r.Description,
		CompanyID:   r.CompanyID,
		AILevel:     models.AILevel(r.AILevel),
		StartDate:   start,
		EndDate:     end,
		Document:    r.Document,
		Stories:     r.Stories,
	}, nil
}

type CancelProjectRequest struct {
	Justification string `json:"justification" validate:"required"`
}

// ProjectController serves the leader's own projects
type ProjectController struct {
	DB             *gorm.DB
	Engine         *workflow.Engine
	Extractor      utils.StoryExtractor
	MaxUploadBytes int
	Logger         *logrus.Entry
}

func NewProjectController(db *gorm.DB, engine *workflow.Engine, extractor utils.StoryExtractor, maxUpload int, logger *logrus.Entry) *ProjectController {
	return &ProjectController{
		DB:             db,
		Engine:         engine,
		Extractor:      extractor,
		MaxUploadBytes: maxUpload,
		Logger:         logger,
	}
}

func (pc *ProjectController) GetProjects(c *fiber.Ctx) error {
	user := currentUser(c)

	query := pc.DB.WithContext(c.UserContext()).
		Preload("Company").
		Preload("Stories").
		Where("leader_id = ?", user.ID).
		Order("created_on DESC")
	if status := c.Query("status"); status != "" {
		if !models.ProjectStatus(status).Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown status filter",
			})
		}
		query = query.Where("status = ?", status)
	}

	var projects []models.Project
	if err := query.Find(&projects).Error; err != nil {
		return respondError(c, pc.Logger, err)
	}
	return c.JSON(fiber.Map{
		"projects": summarizeAll(projects),
	})
}

func (pc *ProjectController) GetProject(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var project models.Project
	err = pc.DB.WithContext(c.UserContext()).
		Preload("Company").
		Preload("Stories").
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("decided_at DESC") }).
		Where("leader_id = ?", currentUser(c).ID).
		First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, pc.Logger, workflow.ErrNotFound)
	}
	if err != nil {
		return respondError(c, pc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"project":    summarize(project),
		"editable":   project.Status == models.ProjectReturned,
		"cancelable": project.Status == models.ProjectPending || project.Status == models.ProjectApproved,
	})
}

func (pc *ProjectController) CreateProject(c *fiber.Ctx) error {
	var req ProjectRequest
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
	in, err := req.input()
	if err != nil {
		return respondError(c, pc.Logger, err)
	}

	project, err := pc.Engine.CreateProject(c.UserContext(), actorOf(c), in)
	if err != nil {
		return respondError(c, pc.Logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Project submitted for approval",
		"project": project,
	})
}

// UpdateProject edits a returned project and resubmits it
func (pc *ProjectController) UpdateProject(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req ProjectRequest
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
	in, err := req.input()
	if err != nil {
		return respondError(c, pc.Logger, err)
	}

	project, err := pc.Engine.ResubmitProject(c.UserContext(), actorOf(c), id, in)
	if err != nil {
		return respondError(c, pc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"message": "Project resubmitted for approval",
		"project": project,
	})
}

func (pc *ProjectController) CancelProject(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req CancelProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	project, err := pc.Engine.CancelProject(c.UserContext(), actorOf(c), id, req.Justification)
	if err != nil {
		return respondError(c, pc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"message": "Project cancelled",
		"project": project,
	})
}

// ExtractStories reads a requirements spreadsheet and returns the user
// stories found in it. Nothing is stored.
func (pc *ProjectController) ExtractStories(c *fiber.Ctx) error {
	if pc.Extractor == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Story extraction is not configured",
		})
	}

	name, contentType, data, err := readSpreadsheet(c, pc.MaxUploadBytes)
	if err != nil {
		return err
	}

	stories, err := pc.Extractor.Extract(c.UserContext(), name, contentType, data)
	if err != nil {
		if errors.Is(err, utils.ErrNoStories) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		pc.Logger.WithError(err).WithField("file", name).Warn("Story extraction failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Could not extract user stories from the file",
		})
	}

	return c.JSON(fiber.Map{
		"stories": stories,
	})
}

// readSpreadsheet loads the multipart "file" field after checking it is an
// xls, xlsx or csv file within the size limit.
func readSpreadsheet(c *fiber.Ctx, maxBytes int) (string, string, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", "", nil, fiber.NewError(fiber.StatusBadRequest, "A file is required")
	}
	if maxBytes > 0 && header.Size > int64(maxBytes) {
		return "", "", nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, "File is too large")
	}

	f, err := header.Open()
	if err != nil {
		return "", "", nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", "", nil, err
	}

	contentType, ok := utils.SpreadsheetType(header.Filename, header.Header.Get("Content-Type"), data)
	if !ok {
		return "", "", nil, fiber.NewError(fiber.StatusBadRequest, "Only xls, xlsx or csv files are accepted")
	}
	return header.Filename, contentType, data, nil
}

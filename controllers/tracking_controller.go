package controller

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"nexus/models"
	"nexus/utils"
	"nexus/workflow"
)

type ApproveProgressRequest struct {
	StoryIDs []uint `json:"story_ids" validate:"required,min=1"`
	Comment  string `json:"comment"`
}

type RejectProgressRequest struct {
	Comment string `json:"comment"`
}

// TrackingController follows approved projects story by story
type TrackingController struct {
	DB             *gorm.DB
	Engine         *workflow.Engine
	Files          utils.FileStore
	MaxUploadBytes int
	Logger         *logrus.Entry
}

func NewTrackingController(db *gorm.DB, engine *workflow.Engine, files utils.FileStore, maxUpload int, logger *logrus.Entry) *TrackingController {
	return &TrackingController{
		DB:             db,
		Engine:         engine,
		Files:          files,
		MaxUploadBytes: maxUpload,
		Logger:         logger,
	}
}

// scoped limits leaders to their own projects
func scoped(c *fiber.Ctx, db *gorm.DB) *gorm.DB {
	user := currentUser(c)
	if user.IsManager() {
		return db
	}
	return db.Where("projects.leader_id = ?", user.ID)
}

func (tc *TrackingController) GetTrackedProjects(c *fiber.Ctx) error {
	var projects []models.Project
	err := scoped(c, tc.DB.WithContext(c.UserContext())).
		Preload("Company").
		Preload("Leader").
		Preload("Stories").
		Where("projects.status = ?", models.ProjectApproved).
		Order("projects.created_on DESC").
		Find(&projects).Error
	if err != nil {
		return respondError(c, tc.Logger, err)
	}

	summaries := summarizeAll(projects)
	waiting := 0
	for _, s := range summaries {
		if s.InReviewStories > 0 {
			waiting++
		}
	}

	return c.JSON(fiber.Map{
		"projects":        summaries,
		"awaiting_review": waiting,
	})
}

// GetTrackedProject returns a project with its stories; stories in review
// carry the evidence waiting for the manager.
func (tc *TrackingController) GetTrackedProject(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var project models.Project
	err = scoped(c, tc.DB.WithContext(c.UserContext())).
		Preload("Company").
		Preload("Leader").
		Preload("Stories", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Stories.Evidences", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.EvidencePending).Order("uploaded_at DESC")
		}).
		Preload("Stories.Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("decided_at DESC") }).
		First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, tc.Logger, workflow.ErrNotFound)
	}
	if err != nil {
		return respondError(c, tc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"project": summarize(project),
	})
}

// SubmitProgress uploads one evidence file for the selected stories. The
// selection is checked before the upload so a bad request costs nothing.
func (tc *TrackingController) SubmitProgress(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Expected a multipart form with file and story_ids",
		})
	}
	storyIDs, err := parseIDs(form.Value["story_ids"])
	if err != nil {
		return respondError(c, tc.Logger, err)
	}

	ctx := c.UserContext()
	actor := actorOf(c)
	if err := tc.Engine.CheckProgress(ctx, actor, id, storyIDs); err != nil {
		return respondError(c, tc.Logger, err)
	}

	name, contentType, data, err := readSpreadsheet(c, tc.MaxUploadBytes)
	if err != nil {
		return err
	}

	uploaded, err := tc.Files.Upload(ctx, name, contentType, data)
	if err != nil {
		tc.Logger.WithError(err).WithField("project_id", id).Warn("Evidence upload failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Could not upload the evidence file",
		})
	}
	if uploaded.Format == "" {
		uploaded.Format = utils.ExtensionFor(contentType)
	}

	evidences, err := tc.Engine.SubmitProgress(ctx, actor, id, storyIDs, workflow.EvidenceFile{
		URL:      uploaded.URL,
		PublicID: uploaded.PublicID,
		Format:   uploaded.Format,
		Bytes:    uploaded.Bytes,
	})
	if err != nil {
		tc.discard(uploaded)
		return respondError(c, tc.Logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Progress submitted for review",
		"evidences": evidences,
	})
}

func (tc *TrackingController) discard(file *utils.UploadedFile) {
	if err := tc.Files.Delete(context.Background(), file.PublicID); err != nil {
		tc.Logger.WithError(err).WithFields(logrus.Fields{
			"public_id": file.PublicID,
			"url":       file.URL,
		}).Warn("Orphaned evidence file left on the file host")
	}
}

func (tc *TrackingController) ApproveProgress(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req ApproveProgressRequest
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

	result, err := tc.Engine.ApproveProgress(c.UserContext(), actorOf(c), id, req.StoryIDs, req.Comment)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}

	message := "Progress approved"
	if result.Completed {
		message = "Progress approved, project completed"
	}
	return c.JSON(fiber.Map{
		"message": message,
		"result":  result,
	})
}

// RejectProgress returns every story in review to pending
func (tc *TrackingController) RejectProgress(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req RejectProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := tc.Engine.RejectProgress(c.UserContext(), actorOf(c), id, req.Comment)
	if err != nil {
		return respondError(c, tc.Logger, err)
	}

	return c.JSON(fiber.Map{
		"message": "Progress rejected, stories returned to pending",
		"result":  result,
	})
}

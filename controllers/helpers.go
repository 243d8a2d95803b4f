package controller

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"nexus/models"
	"nexus/session"
	"nexus/utils"
	"nexus/workflow"
)

// dateLayout is the calendar date format used in requests
const dateLayout = "2006-01-02"

func currentUser(c *fiber.Ctx) *models.User {
	return c.Locals("user").(*models.User)
}

func currentSession(c *fiber.Ctx) *session.Session {
	return c.Locals("session").(*session.Session)
}

func actorOf(c *fiber.Ctx) workflow.Actor {
	user := currentUser(c)
	return workflow.Actor{UserID: user.ID, Role: user.Role}
}

func idParam(c *fiber.Ctx) (uint, error) {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return id, nil
}

// parseIDs accepts repeated values and comma separated lists
func parseIDs(values []string) ([]uint, error) {
	var ids []uint
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 32)
			if err != nil || id == 0 {
				return nil, &workflow.ValidationError{Field: "story_ids", Message: "invalid story id " + strconv.Quote(part)}
			}
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}

// respondError maps workflow errors to HTTP responses. Anything unexpected
// is logged and reported as a 500.
func respondError(c *fiber.Ctx, log *logrus.Entry, err error) error {
	var verr *workflow.ValidationError
	var guard *workflow.GuardError

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Error(), "field": verr.Field})
	case errors.As(err, &guard):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": guard.Error()})
	case errors.Is(err, workflow.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, workflow.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Project not found"})
	case errors.Is(err, workflow.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error("Request failed")
	utils.LogError("request_failed", err, map[string]interface{}{
		"method": c.Method(),
		"path":   c.Path(),
	})
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

// ProjectSummary is a project with its story progress
type ProjectSummary struct {
	models.Project
	Progress        int `json:"progress"`
	ApprovedStories int `json:"approved_stories"`
	TotalStories    int `json:"total_stories"`
	InReviewStories int `json:"in_review_stories"`
}

func summarize(p models.Project) ProjectSummary {
	s := ProjectSummary{Project: p, TotalStories: len(p.Stories)}
	for _, story := range p.Stories {
		switch story.Status {
		case models.StoryApproved:
			s.ApprovedStories++
		case models.StoryInReview:
			s.InReviewStories++
		}
	}
	s.Progress = workflow.Progress(s.ApprovedStories, s.TotalStories)
	return s
}

func summarizeAll(projects []models.Project) []ProjectSummary {
	out := make([]ProjectSummary, len(projects))
	for i, p := range projects {
		out[i] = summarize(p)
	}
	return out
}

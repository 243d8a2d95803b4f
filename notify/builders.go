package notify

import (
	"fmt"

	"nexus/models"
)

// PendingProjectEvent tells managers a project waits for review.
func PendingProjectEvent(p *models.Project) Event {
	return Event{
		ID:        EventID(KindPending, p.ID),
		Text:      fmt.Sprintf("New project waiting for review: %s", p.Name),
		Timestamp: p.CreatedOn,
		Category:  CategoryPendingProject,
		ProjectID: uintPtr(p.ID),
	}
}

// ReviewEvent tells a leader a manager opened their project.
func ReviewEvent(p *models.Project) Event {
	ts := p.UpdatedAt
	if p.ReviewStartedAt != nil {
		ts = *p.ReviewStartedAt
	}
	return Event{
		ID:        EventID(KindReview, p.ID),
		Text:      fmt.Sprintf("Your project %s is being reviewed", p.Name),
		Timestamp: ts,
		Category:  CategoryInReview,
		ProjectID: uintPtr(p.ID),
	}
}

// DecisionEvent tells a leader what a manager decided on their project.
func DecisionEvent(a *models.ProjectApproval, projectName string) Event {
	ev := Event{
		ID:        EventID(KindApproval, a.ID),
		Timestamp: a.DecidedAt,
		ProjectID: uintPtr(a.ProjectID),
	}
	switch a.Outcome {
	case models.OutcomeApproved:
		ev.Category = CategoryApproved
		ev.Text = fmt.Sprintf("Your project %s was approved", projectName)
	case models.OutcomeReturned:
		ev.Category = CategoryReturned
		ev.Text = fmt.Sprintf("Your project %s was returned for changes", projectName)
	default:
		ev.Category = CategoryRejected
		ev.Text = fmt.Sprintf("Your project %s was not approved", projectName)
	}
	if a.Reason != nil && *a.Reason != "" {
		ev.Text += ": " + *a.Reason
	}
	return ev
}

// EvidenceEvent tells managers new progress evidence was uploaded.
func EvidenceEvent(e *models.Evidence, projectID uint, projectName string) Event {
	return Event{
		ID:        EventID(KindEvidence, e.ID),
		Text:      fmt.Sprintf("New progress evidence uploaded for %s", projectName),
		Timestamp: e.UploadedAt,
		Category:  CategoryEvidence,
		ProjectID: uintPtr(projectID),
	}
}

// StoryApprovedEvent tells a leader one of their stories was approved.
func StoryApprovedEvent(a *models.StoryApproval, storyTitle string, projectID uint, projectName string) Event {
	return Event{
		ID:        EventID(KindStory, a.ID),
		Text:      fmt.Sprintf("Story %q of %s was approved", storyTitle, projectName),
		Timestamp: a.DecidedAt,
		Category:  CategoryStoryApproved,
		ProjectID: uintPtr(projectID),
	}
}

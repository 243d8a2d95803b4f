package workflow

import (
	"fmt"
	"math"

	"nexus/models"
)

// Action is anything an actor (or the system) can do to a project or a story.
type Action string

const (
	// project actions
	ActionSubmit     Action = "submit"
	ActionOpenReview Action = "open_review"
	ActionApprove    Action = "approve"
	ActionReturn     Action = "return"
	ActionReject     Action = "reject"
	ActionResubmit   Action = "resubmit"
	ActionCancel     Action = "cancel"
	ActionComplete   Action = "complete"

	// story actions
	ActionSubmitEvidence Action = "submit_evidence"
	ActionApproveStory   Action = "approve_story"
	ActionRevertStory    Action = "revert_story"
)

var projectTransitions = map[models.ProjectStatus]map[Action]models.ProjectStatus{
	models.ProjectPending: {
		ActionOpenReview: models.ProjectInReview,
		ActionCancel:     models.ProjectCancelled,
	},
	models.ProjectInReview: {
		ActionOpenReview: models.ProjectInReview,
		ActionApprove:    models.ProjectApproved,
		ActionReturn:     models.ProjectReturned,
		ActionReject:     models.ProjectNoApproved,
	},
	models.ProjectReturned: {
		ActionResubmit: models.ProjectPending,
	},
	models.ProjectApproved: {
		ActionCancel:   models.ProjectCancelled,
		ActionComplete: models.ProjectCompleted,
	},
}

var storyTransitions = map[models.StoryStatus]map[Action]models.StoryStatus{
	models.StoryPending: {
		ActionSubmitEvidence: models.StoryInReview,
	},
	models.StoryInReview: {
		ActionApproveStory: models.StoryApproved,
		ActionRevertStory:  models.StoryPending,
	},
}

// NextProjectStatus returns the status a project moves to when action is
// applied in status from. A brand new project (empty status) can only be
// submitted.
func NextProjectStatus(from models.ProjectStatus, action Action) (models.ProjectStatus, error) {
	if from == "" {
		if action == ActionSubmit {
			return models.ProjectPending, nil
		}
		return "", &GuardError{Action: action, Message: "project has not been submitted yet"}
	}
	if !from.Valid() {
		return "", &GuardError{Action: action, From: string(from), Message: fmt.Sprintf("unknown project status %q", from)}
	}
	if to, ok := projectTransitions[from][action]; ok {
		return to, nil
	}
	return "", &GuardError{Action: action, From: string(from), Message: projectGuardMessage(from, action)}
}

func projectGuardMessage(from models.ProjectStatus, action Action) string {
	switch {
	case action == ActionCancel && from == models.ProjectInReview:
		return "a project cannot be cancelled while it is in review"
	case action == ActionResubmit:
		return "only returned projects can be edited and resubmitted"
	case action == ActionComplete:
		return "only approved projects can be completed"
	case isTerminal(from):
		return fmt.Sprintf("project is %s and can no longer change", from)
	case action == ActionApprove || action == ActionReturn || action == ActionReject:
		return fmt.Sprintf("project must be in review to %s it, current status is %s", action, from)
	default:
		return fmt.Sprintf("cannot %s a project in status %s", action, from)
	}
}

func isTerminal(s models.ProjectStatus) bool {
	switch s {
	case models.ProjectNoApproved, models.ProjectCancelled, models.ProjectCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition leaves s.
func IsTerminal(s models.ProjectStatus) bool {
	return isTerminal(s)
}

// NextStoryStatus returns the status a story moves to when action is applied.
func NextStoryStatus(from models.StoryStatus, action Action) (models.StoryStatus, error) {
	if to, ok := storyTransitions[from][action]; ok {
		return to, nil
	}
	var msg string
	switch {
	case action == ActionSubmitEvidence && from == models.StoryInReview:
		msg = "story already has evidence waiting for review"
	case action == ActionSubmitEvidence && from == models.StoryApproved:
		msg = "story is already approved"
	case action == ActionApproveStory || action == ActionRevertStory:
		msg = fmt.Sprintf("story must be in review, current status is %s", from)
	default:
		msg = fmt.Sprintf("cannot %s a story in status %s", action, from)
	}
	return "", &GuardError{Action: action, From: string(from), Message: msg}
}

// CanEditStory reports whether a leader may still change the story text.
func CanEditStory(s models.StoryStatus) bool {
	return s == models.StoryPending
}

// Authorize checks that role may perform action. Adding a role means adding
// a case here.
func Authorize(role models.Role, action Action) error {
	var allowed bool
	switch role {
	case models.RoleLeader:
		switch action {
		case ActionSubmit, ActionResubmit, ActionCancel, ActionSubmitEvidence:
			allowed = true
		}
	case models.RoleManager:
		switch action {
		case ActionOpenReview, ActionApprove, ActionReturn, ActionReject,
			ActionComplete, ActionApproveStory, ActionRevertStory:
			allowed = true
		}
	default:
		return forbidden("unknown role %q", role)
	}
	if !allowed {
		return forbidden("a %s cannot %s", role, action)
	}
	return nil
}

// Progress is the share of approved stories as a whole percentage.
func Progress(approved, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(approved) / float64(total)))
}

// CanComplete reports whether a project with these counts is done.
func CanComplete(approved, total int) bool {
	return total > 0 && approved == total
}

package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/models"
)

func TestNextProjectStatus(t *testing.T) {
	tests := []struct {
		name   string
		from   models.ProjectStatus
		action Action
		want   models.ProjectStatus
		guard  bool
	}{
		{"submit new project", "", ActionSubmit, models.ProjectPending, false},
		{"open pending", models.ProjectPending, ActionOpenReview, models.ProjectInReview, false},
		{"open is idempotent", models.ProjectInReview, ActionOpenReview, models.ProjectInReview, false},
		{"approve in review", models.ProjectInReview, ActionApprove, models.ProjectApproved, false},
		{"return in review", models.ProjectInReview, ActionReturn, models.ProjectReturned, false},
		{"reject in review", models.ProjectInReview, ActionReject, models.ProjectNoApproved, false},
		{"resubmit returned", models.ProjectReturned, ActionResubmit, models.ProjectPending, false},
		{"cancel pending", models.ProjectPending, ActionCancel, models.ProjectCancelled, false},
		{"cancel approved", models.ProjectApproved, ActionCancel, models.ProjectCancelled, false},
		{"complete approved", models.ProjectApproved, ActionComplete, models.ProjectCompleted, false},

		{"cancel in review", models.ProjectInReview, ActionCancel, "", true},
		{"approve pending", models.ProjectPending, ActionApprove, "", true},
		{"resubmit pending", models.ProjectPending, ActionResubmit, "", true},
		{"reopen rejected", models.ProjectNoApproved, ActionOpenReview, "", true},
		{"cancel cancelled", models.ProjectCancelled, ActionCancel, "", true},
		{"cancel completed", models.ProjectCompleted, ActionCancel, "", true},
		{"complete pending", models.ProjectPending, ActionComplete, "", true},
		{"open returned", models.ProjectReturned, ActionOpenReview, "", true},
		{"unknown status", models.ProjectStatus("archived"), ActionCancel, "", true},
		{"open unsubmitted", "", ActionOpenReview, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextProjectStatus(tt.from, tt.action)
			if tt.guard {
				var guard *GuardError
				require.ErrorAs(t, err, &guard)
				assert.Equal(t, tt.action, guard.Action)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCancelInReviewMessage(t *testing.T) {
	_, err := NextProjectStatus(models.ProjectInReview, ActionCancel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be cancelled while it is in review")
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []models.ProjectStatus{models.ProjectNoApproved, models.ProjectCancelled, models.ProjectCompleted} {
		assert.True(t, IsTerminal(s), s)
		for _, a := range []Action{ActionOpenReview, ActionApprove, ActionReturn, ActionReject, ActionResubmit, ActionCancel, ActionComplete} {
			_, err := NextProjectStatus(s, a)
			assert.Error(t, err, "%s from %s", a, s)
		}
	}
	assert.False(t, IsTerminal(models.ProjectApproved))
}

func TestNextStoryStatus(t *testing.T) {
	to, err := NextStoryStatus(models.StoryPending, ActionSubmitEvidence)
	require.NoError(t, err)
	assert.Equal(t, models.StoryInReview, to)

	to, err = NextStoryStatus(models.StoryInReview, ActionApproveStory)
	require.NoError(t, err)
	assert.Equal(t, models.StoryApproved, to)

	to, err = NextStoryStatus(models.StoryInReview, ActionRevertStory)
	require.NoError(t, err)
	assert.Equal(t, models.StoryPending, to)

	_, err = NextStoryStatus(models.StoryInReview, ActionSubmitEvidence)
	assert.ErrorContains(t, err, "already has evidence")

	_, err = NextStoryStatus(models.StoryApproved, ActionRevertStory)
	assert.Error(t, err)

	_, err = NextStoryStatus(models.StoryPending, ActionApproveStory)
	assert.Error(t, err)
}

func TestCanEditStory(t *testing.T) {
	assert.True(t, CanEditStory(models.StoryPending))
	assert.False(t, CanEditStory(models.StoryInReview))
	assert.False(t, CanEditStory(models.StoryApproved))
}

func TestAuthorize(t *testing.T) {
	leader := []Action{ActionSubmit, ActionResubmit, ActionCancel, ActionSubmitEvidence}
	manager := []Action{ActionOpenReview, ActionApprove, ActionReturn, ActionReject, ActionComplete, ActionApproveStory, ActionRevertStory}

	for _, a := range leader {
		assert.NoError(t, Authorize(models.RoleLeader, a), a)
		assert.True(t, errors.Is(Authorize(models.RoleManager, a), ErrForbidden), a)
	}
	for _, a := range manager {
		assert.NoError(t, Authorize(models.RoleManager, a), a)
		assert.True(t, errors.Is(Authorize(models.RoleLeader, a), ErrForbidden), a)
	}
	assert.ErrorIs(t, Authorize(models.Role("auditor"), ActionSubmit), ErrForbidden)
}

func TestProgress(t *testing.T) {
	tests := []struct {
		approved, total, want int
	}{
		{0, 0, 0},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{5, 5, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Progress(tt.approved, tt.total), "%d/%d", tt.approved, tt.total)
	}
	assert.True(t, CanComplete(3, 3))
	assert.False(t, CanComplete(0, 0))
	assert.False(t, CanComplete(2, 3))
}

package notify

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/models"
	"nexus/testutil"
)

func TestCollectorManagerSnapshot(t *testing.T) {
	db := testutil.NewDB(t)
	leader := testutil.CreateUser(t, db, "leader@acme.test", models.RoleLeader)
	manager := testutil.CreateUser(t, db, "manager@acme.test", models.RoleManager)
	company := testutil.CreateCompany(t, db, "Acme")

	pending := testutil.CreateProject(t, db, leader, company, models.ProjectPending)
	testutil.CreateProject(t, db, leader, company, models.ProjectInReview)
	approved := testutil.CreateProject(t, db, leader, company, models.ProjectApproved, "A", "B")

	waiting := models.Evidence{StoryID: approved.Stories[0].ID, FileURL: "u", UploadedAt: time.Now(), Status: models.EvidencePending}
	reviewed := models.Evidence{StoryID: approved.Stories[1].ID, FileURL: "u", UploadedAt: time.Now(), Status: models.EvidenceApproved}
	require.NoError(t, db.Create(&waiting).Error)
	require.NoError(t, db.Create(&reviewed).Error)

	events, err := NewCollector(db).Snapshot(context.Background(), Audience{UserID: manager.ID, Role: models.RoleManager})
	require.NoError(t, err)

	got := ids(events)
	sort.Strings(got)
	assert.Equal(t, []string{EventID(KindEvidence, waiting.ID), EventID(KindPending, pending.ID)}, got)
	for _, ev := range events {
		if ev.Category == CategoryEvidence {
			require.NotNil(t, ev.ProjectID)
			assert.Equal(t, approved.ID, *ev.ProjectID)
		}
	}
}

func TestCollectorLeaderSnapshot(t *testing.T) {
	db := testutil.NewDB(t)
	leader := testutil.CreateUser(t, db, "leader@acme.test", models.RoleLeader)
	other := testutil.CreateUser(t, db, "other@acme.test", models.RoleLeader)
	manager := testutil.CreateUser(t, db, "manager@acme.test", models.RoleManager)
	company := testutil.CreateCompany(t, db, "Acme")

	inReview := testutil.CreateProject(t, db, leader, company, models.ProjectInReview)
	approved := testutil.CreateProject(t, db, leader, company, models.ProjectApproved, "A", "B")
	foreign := testutil.CreateProject(t, db, other, company, models.ProjectApproved, "X")

	decision := models.ProjectApproval{DecidedAt: time.Now(), Outcome: models.OutcomeApproved, ProjectID: approved.ID, ManagerID: manager.ID}
	foreignDecision := models.ProjectApproval{DecidedAt: time.Now(), Outcome: models.OutcomeApproved, ProjectID: foreign.ID, ManagerID: manager.ID}
	storyOK := models.StoryApproval{DecidedAt: time.Now(), Outcome: models.StoryOutcomeApproved, StoryID: approved.Stories[0].ID, ManagerID: manager.ID}
	storyKO := models.StoryApproval{DecidedAt: time.Now(), Outcome: models.StoryOutcomeRejected, StoryID: approved.Stories[1].ID, ManagerID: manager.ID}
	require.NoError(t, db.Create(&decision).Error)
	require.NoError(t, db.Create(&foreignDecision).Error)
	require.NoError(t, db.Create(&storyOK).Error)
	require.NoError(t, db.Create(&storyKO).Error)

	events, err := NewCollector(db).Snapshot(context.Background(), Audience{UserID: leader.ID, Role: models.RoleLeader})
	require.NoError(t, err)

	got := ids(events)
	sort.Strings(got)
	assert.Equal(t, []string{
		EventID(KindApproval, decision.ID),
		EventID(KindReview, inReview.ID),
		EventID(KindStory, storyOK.ID),
	}, got)
}

func TestCollectorLeaderWithoutProjects(t *testing.T) {
	db := testutil.NewDB(t)
	leader := testutil.CreateUser(t, db, "leader@acme.test", models.RoleLeader)

	events, err := NewCollector(db).Snapshot(context.Background(), Audience{UserID: leader.ID, Role: models.RoleLeader})
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = NewCollector(db).Snapshot(context.Background(), Audience{UserID: leader.ID, Role: "guest"})
	assert.Error(t, err)
}

package notify

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"nexus/models"
)

// Audience identifies who a feed is built for.
type Audience struct {
	UserID uint
	Role   models.Role
}

// Collector builds full notification snapshots from the database. It is the
// polling half of the aggregator.
type Collector struct {
	db *gorm.DB
}

func NewCollector(db *gorm.DB) *Collector {
	return &Collector{db: db}
}

// Snapshot returns every event relevant to who, unordered.
func (c *Collector) Snapshot(ctx context.Context, who Audience) ([]Event, error) {
	switch who.Role {
	case models.RoleManager:
		return c.managerEvents(ctx)
	case models.RoleLeader:
		return c.leaderEvents(ctx, who.UserID)
	default:
		return nil, fmt.Errorf("no notifications for role %q", who.Role)
	}
}

func (c *Collector) managerEvents(ctx context.Context) ([]Event, error) {
	var (
		pending   []models.Project
		evidences []models.Evidence
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.db.WithContext(gctx).
			Where("status = ?", models.ProjectPending).
			Find(&pending).Error
	})
	g.Go(func() error {
		return c.db.WithContext(gctx).
			Preload("Story.Project").
			Where("status = ?", models.EvidencePending).
			Find(&evidences).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect manager notifications: %w", err)
	}

	events := make([]Event, 0, len(pending)+len(evidences))
	for i := range pending {
		events = append(events, PendingProjectEvent(&pending[i]))
	}
	for i := range evidences {
		ev := &evidences[i]
		if ev.Story == nil || ev.Story.Project == nil {
			continue
		}
		events = append(events, EvidenceEvent(ev, ev.Story.ProjectID, ev.Story.Project.Name))
	}
	return events, nil
}

func (c *Collector) leaderEvents(ctx context.Context, leaderID uint) ([]Event, error) {
	var projects []models.Project
	if err := c.db.WithContext(ctx).
		Where("leader_id = ?", leaderID).
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("collect leader projects: %w", err)
	}
	if len(projects) == 0 {
		return nil, nil
	}

	names := make(map[uint]string, len(projects))
	ids := make([]uint, 0, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
		ids = append(ids, p.ID)
	}

	var (
		decisions []models.ProjectApproval
		approved  []models.StoryApproval
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.db.WithContext(gctx).
			Where("project_id IN ?", ids).
			Find(&decisions).Error
	})
	g.Go(func() error {
		return c.db.WithContext(gctx).
			Preload("Story").
			Joins("JOIN user_stories ON user_stories.id = story_approvals.story_id").
			Where("user_stories.project_id IN ? AND story_approvals.outcome = ?", ids, models.StoryOutcomeApproved).
			Find(&approved).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect leader notifications: %w", err)
	}

	events := make([]Event, 0, len(decisions)+len(approved)+1)
	for i := range projects {
		if projects[i].Status == models.ProjectInReview {
			events = append(events, ReviewEvent(&projects[i]))
		}
	}
	for i := range decisions {
		events = append(events, DecisionEvent(&decisions[i], names[decisions[i].ProjectID]))
	}
	for i := range approved {
		sa := &approved[i]
		if sa.Story == nil {
			continue
		}
		events = append(events, StoryApprovedEvent(sa, sa.Story.Title, sa.Story.ProjectID, names[sa.Story.ProjectID]))
	}
	return events, nil
}

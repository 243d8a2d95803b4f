package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"nexus/models"
	"nexus/notify"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID uint
	Role   models.Role
}

// Engine applies workflow transitions to the database. Every operation
// checks the role, the current status and the input before writing, and
// writes the status change together with its audit rows in one transaction.
// Status updates are conditional on the status that was read, so a
// concurrent change surfaces as ErrConflict instead of being overwritten.
type Engine struct {
	db        *gorm.DB
	publisher notify.Publisher
	log       *logrus.Entry
	now       func() time.Time
}

func NewEngine(db *gorm.DB, publisher notify.Publisher, log *logrus.Entry) *Engine {
	return &Engine{db: db, publisher: publisher, log: log, now: time.Now}
}

// ProjectInput is what a leader submits when creating or editing a project.
type ProjectInput struct {
	Name        string
	Description string
	CompanyID   uint
	AILevel     models.AILevel
	StartDate   time.Time
	EndDate     time.Time
	Document    string
	Stories     []string
}

func (in *ProjectInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Document = strings.TrimSpace(in.Document)

	switch {
	case in.Name == "":
		return invalid("name", "is required")
	case in.Description == "":
		return invalid("description", "is required")
	case in.CompanyID == 0:
		return invalid("company_id", "is required")
	case !in.AILevel.Valid():
		return invalid("ai_level", "must be one of low, medium, high, advanced")
	case in.StartDate.IsZero() || in.EndDate.IsZero():
		return invalid("dates", "start and end dates are required")
	case in.EndDate.Before(in.StartDate):
		return invalid("end_date", "must not be before the start date")
	}

	stories := make([]string, 0, len(in.Stories))
	for _, s := range in.Stories {
		if s = strings.TrimSpace(s); s != "" {
			stories = append(stories, s)
		}
	}
	if len(stories) == 0 {
		return invalid("stories", "add at least one user story")
	}
	in.Stories = stories
	return nil
}

func (in *ProjectInput) document() *string {
	if in.Document == "" {
		return nil
	}
	doc := in.Document
	return &doc
}

func newStories(projectID uint, texts []string) []models.UserStory {
	stories := make([]models.UserStory, len(texts))
	for i, text := range texts {
		stories[i] = models.UserStory{
			ProjectID:   projectID,
			Title:       fmt.Sprintf("User story %d", i+1),
			Description: text,
			Status:      models.StoryPending,
		}
	}
	return stories
}

// CreateProject stores a new pending project with its stories.
func (e *Engine) CreateProject(ctx context.Context, actor Actor, in ProjectInput) (*models.Project, error) {
	if err := Authorize(actor.Role, ActionSubmit); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	status, err := NextProjectStatus("", ActionSubmit)
	if err != nil {
		return nil, err
	}
	if err := e.companyExists(ctx, in.CompanyID); err != nil {
		return nil, err
	}

	now := e.now()
	project := &models.Project{
		Name:            in.Name,
		Description:     in.Description,
		AILevel:         in.AILevel,
		Document:        in.document(),
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		CreatedOn:       now,
		EstimatedMonths: models.EstimateMonths(in.StartDate, in.EndDate),
		Status:          status,
		CompanyID:       in.CompanyID,
		LeaderID:        actor.UserID,
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		if len(in.Stories) == 0 {
			return nil
		}
		project.Stories = newStories(project.ID, in.Stories)
		if err := tx.Create(&project.Stories).Error; err != nil {
			return fmt.Errorf("create stories: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, notify.Notice{Event: notify.PendingProjectEvent(project), Managers: true})
	e.log.WithFields(logrus.Fields{"project_id": project.ID, "leader_id": actor.UserID}).Info("Project submitted")
	return project, nil
}

// ResubmitProject applies a leader's edit to a returned project. The story
// set is replaced wholesale and the project goes back to pending.
func (e *Engine) ResubmitProject(ctx context.Context, actor Actor, projectID uint, in ProjectInput) (*models.Project, error) {
	if err := Authorize(actor.Role, ActionResubmit); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	project, err := e.ownedProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	to, err := NextProjectStatus(project.Status, ActionResubmit)
	if err != nil {
		return nil, err
	}
	var stories []models.UserStory
	if err := e.db.WithContext(ctx).Where("project_id = ?", project.ID).Find(&stories).Error; err != nil {
		return nil, fmt.Errorf("load stories: %w", err)
	}
	for _, s := range stories {
		if !CanEditStory(s.Status) {
			return nil, &GuardError{Action: ActionResubmit, From: string(s.Status), Message: fmt.Sprintf("story %d is %s and cannot be edited", s.ID, s.Status)}
		}
	}
	if in.CompanyID != project.CompanyID {
		if err := e.companyExists(ctx, in.CompanyID); err != nil {
			return nil, err
		}
	}

	now := e.now()
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setProjectStatus(tx, project.ID, project.Status, to, map[string]interface{}{
			"name":              in.Name,
			"description":       in.Description,
			"company_id":        in.CompanyID,
			"ai_level":          in.AILevel,
			"document":          in.document(),
			"start_date":        in.StartDate,
			"end_date":          in.EndDate,
			"created_on":        now,
			"estimated_months":  models.EstimateMonths(in.StartDate, in.EndDate),
			"incentive":         nil,
			"review_started_at": nil,
		}); err != nil {
			return err
		}
		if err := tx.Unscoped().Where("project_id = ?", project.ID).Delete(&models.UserStory{}).Error; err != nil {
			return fmt.Errorf("delete stories: %w", err)
		}
		if len(in.Stories) == 0 {
			return nil
		}
		replacement := newStories(project.ID, in.Stories)
		if err := tx.Create(&replacement).Error; err != nil {
			return fmt.Errorf("create stories: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := e.loadProject(ctx, e.db, project.ID, "Stories", "Company")
	if err != nil {
		return nil, err
	}
	e.publish(ctx, notify.Notice{Event: notify.PendingProjectEvent(updated), Managers: true})
	e.log.WithField("project_id", project.ID).Info("Project resubmitted")
	return updated, nil
}

// CancelProject cancels a pending or approved project.
func (e *Engine) CancelProject(ctx context.Context, actor Actor, projectID uint, justification string) (*models.Project, error) {
	if err := Authorize(actor.Role, ActionCancel); err != nil {
		return nil, err
	}
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return nil, invalid("justification", "is required to cancel a project")
	}
	project, err := e.ownedProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	to, err := NextProjectStatus(project.Status, ActionCancel)
	if err != nil {
		return nil, err
	}

	now := e.now()
	err = setProjectStatus(e.db.WithContext(ctx), project.ID, project.Status, to, map[string]interface{}{
		"cancellation_reason": justification,
		"cancelled_at":        now,
	})
	if err != nil {
		return nil, err
	}
	project.Status = to
	project.CancellationReason = &justification
	project.CancelledAt = &now
	e.log.WithField("project_id", project.ID).Info("Project cancelled")
	return project, nil
}

// OpenForReview moves a pending project into review when a manager opens
// it. Opening a project already in review changes nothing.
func (e *Engine) OpenForReview(ctx context.Context, actor Actor, projectID uint) (*models.Project, error) {
	if err := Authorize(actor.Role, ActionOpenReview); err != nil {
		return nil, err
	}
	project, err := e.loadProject(ctx, e.db, projectID)
	if err != nil {
		return nil, err
	}
	to, err := NextProjectStatus(project.Status, ActionOpenReview)
	if err != nil {
		return nil, err
	}
	if to != project.Status {
		now := e.now()
		err = setProjectStatus(e.db.WithContext(ctx), project.ID, project.Status, to, map[string]interface{}{
			"review_started_at": now,
		})
		if err != nil {
			return nil, err
		}
		project.Status = to
		project.ReviewStartedAt = &now
		e.publish(ctx, notify.Notice{Event: notify.ReviewEvent(project), LeaderID: project.LeaderID})
	}
	return e.loadProject(ctx, e.db, project.ID, "Stories", "Company", "Leader")
}

// ApproveProject approves a project in review and records the incentive.
func (e *Engine) ApproveProject(ctx context.Context, actor Actor, projectID uint, incentive string) (*models.ProjectApproval, error) {
	incentive = strings.TrimSpace(incentive)
	if incentive == "" {
		return nil, invalid("incentive", "is required to approve a project")
	}
	return e.decide(ctx, actor, projectID, ActionApprove, models.OutcomeApproved, "", map[string]interface{}{
		"incentive": incentive,
	})
}

// ReturnProject sends a project in review back to its leader for changes.
func (e *Engine) ReturnProject(ctx context.Context, actor Actor, projectID uint, reason string) (*models.ProjectApproval, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "is required to return a project")
	}
	return e.decide(ctx, actor, projectID, ActionReturn, models.OutcomeReturned, reason, nil)
}

// RejectProject closes a project in review for good.
func (e *Engine) RejectProject(ctx context.Context, actor Actor, projectID uint, reason string) (*models.ProjectApproval, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "is required to reject a project")
	}
	return e.decide(ctx, actor, projectID, ActionReject, models.OutcomeRejected, reason, nil)
}

func (e *Engine) decide(ctx context.Context, actor Actor, projectID uint, action Action, outcome models.ApprovalOutcome, reason string, extra map[string]interface{}) (*models.ProjectApproval, error) {
	if err := Authorize(actor.Role, action); err != nil {
		return nil, err
	}
	project, err := e.loadProject(ctx, e.db, projectID)
	if err != nil {
		return nil, err
	}
	to, err := NextProjectStatus(project.Status, action)
	if err != nil {
		return nil, err
	}

	approval := &models.ProjectApproval{
		DecidedAt: e.now(),
		Outcome:   outcome,
		ProjectID: project.ID,
		ManagerID: actor.UserID,
	}
	if reason != "" {
		approval.Reason = &reason
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setProjectStatus(tx, project.ID, project.Status, to, extra); err != nil {
			return err
		}
		if err := tx.Create(approval).Error; err != nil {
			return fmt.Errorf("record approval: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, notify.Notice{Event: notify.DecisionEvent(approval, project.Name), LeaderID: project.LeaderID})
	e.log.WithFields(logrus.Fields{
		"project_id": project.ID,
		"manager_id": actor.UserID,
		"outcome":    outcome,
	}).Info("Project decision recorded")
	return approval, nil
}

// EvidenceFile describes an uploaded evidence file.
type EvidenceFile struct {
	URL      string
	PublicID string
	Format   string
	Bytes    int64
}

// CheckProgress validates a progress submission without writing anything.
// Callers run it before uploading the evidence file.
func (e *Engine) CheckProgress(ctx context.Context, actor Actor, projectID uint, storyIDs []uint) error {
	_, _, err := e.progressTargets(ctx, actor, projectID, storyIDs)
	return err
}

func (e *Engine) progressTargets(ctx context.Context, actor Actor, projectID uint, storyIDs []uint) (*models.Project, []models.UserStory, error) {
	if err := Authorize(actor.Role, ActionSubmitEvidence); err != nil {
		return nil, nil, err
	}
	ids := uniqueIDs(storyIDs)
	if len(ids) == 0 {
		return nil, nil, invalid("story_ids", "select at least one story")
	}
	project, err := e.ownedProject(ctx, actor, projectID)
	if err != nil {
		return nil, nil, err
	}
	if project.Status != models.ProjectApproved {
		return nil, nil, &GuardError{Action: ActionSubmitEvidence, From: string(project.Status), Message: "progress can only be reported on approved projects"}
	}
	stories, err := e.projectStories(ctx, e.db, project.ID, ids)
	if err != nil {
		return nil, nil, err
	}
	for _, s := range stories {
		if _, err := NextStoryStatus(s.Status, ActionSubmitEvidence); err != nil {
			return nil, nil, err
		}
	}
	return project, stories, nil
}

// SubmitProgress moves the selected stories into review and attaches one
// evidence row per story, all pointing at the same uploaded file.
func (e *Engine) SubmitProgress(ctx context.Context, actor Actor, projectID uint, storyIDs []uint, file EvidenceFile) ([]models.Evidence, error) {
	if strings.TrimSpace(file.URL) == "" {
		return nil, invalid("file", "an uploaded evidence file is required")
	}
	project, stories, err := e.progressTargets(ctx, actor, projectID, storyIDs)
	if err != nil {
		return nil, err
	}

	now := e.now()
	evidences := make([]models.Evidence, len(stories))
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, s := range stories {
			to, err := NextStoryStatus(s.Status, ActionSubmitEvidence)
			if err != nil {
				return err
			}
			if err := setStoryStatus(tx, s.ID, s.Status, to); err != nil {
				return err
			}
			evidences[i] = models.Evidence{
				StoryID:    s.ID,
				FileURL:    file.URL,
				PublicID:   file.PublicID,
				Format:     file.Format,
				SizeBytes:  file.Bytes,
				UploadedAt: now,
				Status:     models.EvidencePending,
			}
		}
		if err := tx.Create(&evidences).Error; err != nil {
			return fmt.Errorf("create evidence: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range evidences {
		e.publish(ctx, notify.Notice{Event: notify.EvidenceEvent(&evidences[i], project.ID, project.Name), Managers: true})
	}
	e.log.WithFields(logrus.Fields{"project_id": project.ID, "stories": len(stories)}).Info("Progress submitted")
	return evidences, nil
}

// ProgressResult summarizes a progress review.
type ProgressResult struct {
	Stories   []uint `json:"stories"`
	Approved  int    `json:"approved"`
	Total     int    `json:"total"`
	Progress  int    `json:"progress"`
	Completed bool   `json:"completed"`
}

// ApproveProgress approves the selected stories. When the last story of the
// project is approved the project is completed in the same transaction.
func (e *Engine) ApproveProgress(ctx context.Context, actor Actor, projectID uint, storyIDs []uint, comment string) (*ProgressResult, error) {
	if err := Authorize(actor.Role, ActionApproveStory); err != nil {
		return nil, err
	}
	ids := uniqueIDs(storyIDs)
	if len(ids) == 0 {
		return nil, invalid("story_ids", "select at least one story")
	}
	project, err := e.loadProject(ctx, e.db, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectApproved {
		return nil, &GuardError{Action: ActionApproveStory, From: string(project.Status), Message: "progress can only be reviewed on approved projects"}
	}
	stories, err := e.projectStories(ctx, e.db, project.ID, ids)
	if err != nil {
		return nil, err
	}
	for _, s := range stories {
		if _, err := NextStoryStatus(s.Status, ActionApproveStory); err != nil {
			return nil, err
		}
	}

	comment = strings.TrimSpace(comment)
	now := e.now()
	result := &ProgressResult{Stories: ids}
	approvals := make([]models.StoryApproval, 0, len(stories))

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range stories {
			if err := setStoryStatus(tx, s.ID, s.Status, models.StoryApproved); err != nil {
				return err
			}
			approvals = append(approvals, models.StoryApproval{
				DecidedAt: now,
				Outcome:   models.StoryOutcomeApproved,
				Comment:   comment,
				StoryID:   s.ID,
				ManagerID: actor.UserID,
			})
			if err := reviewEvidence(tx, s.ID, models.EvidenceApproved, comment); err != nil {
				return err
			}
		}
		if err := tx.Create(&approvals).Error; err != nil {
			return fmt.Errorf("record story approvals: %w", err)
		}

		approved, total, err := countStories(tx, project.ID)
		if err != nil {
			return err
		}
		result.Approved, result.Total = approved, total
		result.Progress = Progress(approved, total)
		if !CanComplete(approved, total) {
			return nil
		}
		if err := Authorize(actor.Role, ActionComplete); err != nil {
			return err
		}
		to, err := NextProjectStatus(project.Status, ActionComplete)
		if err != nil {
			return err
		}
		if err := setProjectStatus(tx, project.ID, project.Status, to, nil); err != nil {
			return err
		}
		result.Completed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	titles := make(map[uint]string, len(stories))
	for _, s := range stories {
		titles[s.ID] = s.Title
	}
	for i := range approvals {
		ev := notify.StoryApprovedEvent(&approvals[i], titles[approvals[i].StoryID], project.ID, project.Name)
		e.publish(ctx, notify.Notice{Event: ev, LeaderID: project.LeaderID})
	}
	e.log.WithFields(logrus.Fields{
		"project_id": project.ID,
		"progress":   result.Progress,
		"completed":  result.Completed,
	}).Info("Progress approved")
	return result, nil
}

// RejectProgress sends every story of the project that is in review back to
// pending, whichever stories the manager was looking at.
func (e *Engine) RejectProgress(ctx context.Context, actor Actor, projectID uint, comment string) (*ProgressResult, error) {
	if err := Authorize(actor.Role, ActionRevertStory); err != nil {
		return nil, err
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, invalid("comment", "is required to reject progress")
	}
	project, err := e.loadProject(ctx, e.db, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectApproved {
		return nil, &GuardError{Action: ActionRevertStory, From: string(project.Status), Message: "progress can only be reviewed on approved projects"}
	}
	var inReview []models.UserStory
	if err := e.db.WithContext(ctx).
		Where("project_id = ? AND status = ?", project.ID, models.StoryInReview).
		Order("id").
		Find(&inReview).Error; err != nil {
		return nil, fmt.Errorf("load stories in review: %w", err)
	}
	if len(inReview) == 0 {
		return nil, &GuardError{Action: ActionRevertStory, From: string(project.Status), Message: "no progress is waiting for review"}
	}

	now := e.now()
	result := &ProgressResult{}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := make([]models.StoryApproval, 0, len(inReview))
		for _, s := range inReview {
			to, err := NextStoryStatus(s.Status, ActionRevertStory)
			if err != nil {
				return err
			}
			if err := setStoryStatus(tx, s.ID, s.Status, to); err != nil {
				return err
			}
			if err := reviewEvidence(tx, s.ID, models.EvidenceRejected, comment); err != nil {
				return err
			}
			rows = append(rows, models.StoryApproval{
				DecidedAt: now,
				Outcome:   models.StoryOutcomeRejected,
				Comment:   comment,
				StoryID:   s.ID,
				ManagerID: actor.UserID,
			})
			result.Stories = append(result.Stories, s.ID)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("record story rejections: %w", err)
		}
		approved, total, err := countStories(tx, project.ID)
		if err != nil {
			return err
		}
		result.Approved, result.Total = approved, total
		result.Progress = Progress(approved, total)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{"project_id": project.ID, "reverted": len(result.Stories)}).Info("Progress rejected")
	return result, nil
}

func (e *Engine) publish(ctx context.Context, n notify.Notice) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, n); err != nil {
		e.log.WithError(err).WithField("event_id", n.Event.ID).Warn("Failed to publish notification")
	}
}

func (e *Engine) companyExists(ctx context.Context, id uint) error {
	var count int64
	if err := e.db.WithContext(ctx).Model(&models.Company{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check company: %w", err)
	}
	if count == 0 {
		return invalid("company_id", "company %d does not exist", id)
	}
	return nil
}

func (e *Engine) loadProject(ctx context.Context, db *gorm.DB, id uint, preload ...string) (*models.Project, error) {
	q := db.WithContext(ctx)
	for _, rel := range preload {
		q = q.Preload(rel)
	}
	var project models.Project
	if err := q.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	return &project, nil
}

func (e *Engine) ownedProject(ctx context.Context, actor Actor, id uint) (*models.Project, error) {
	project, err := e.loadProject(ctx, e.db, id)
	if err != nil {
		return nil, err
	}
	if project.LeaderID != actor.UserID {
		return nil, forbidden("project %d belongs to another leader", id)
	}
	return project, nil
}

func (e *Engine) projectStories(ctx context.Context, db *gorm.DB, projectID uint, ids []uint) ([]models.UserStory, error) {
	var stories []models.UserStory
	if err := db.WithContext(ctx).
		Where("project_id = ? AND id IN ?", projectID, ids).
		Order("id").
		Find(&stories).Error; err != nil {
		return nil, fmt.Errorf("load stories: %w", err)
	}
	if len(stories) != len(ids) {
		found := make(map[uint]bool, len(stories))
		for _, s := range stories {
			found[s.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, invalid("story_ids", "story %d does not belong to project %d", id, projectID)
			}
		}
	}
	return stories, nil
}

func setProjectStatus(tx *gorm.DB, id uint, from, to models.ProjectStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&models.Project{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update project status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func setStoryStatus(tx *gorm.DB, id uint, from, to models.StoryStatus) error {
	res := tx.Model(&models.UserStory{}).Where("id = ? AND status = ?", id, from).Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("update story status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func reviewEvidence(tx *gorm.DB, storyID uint, status models.EvidenceStatus, observation string) error {
	updates := map[string]interface{}{"status": status}
	if observation != "" {
		updates["manager_observation"] = observation
	}
	err := tx.Model(&models.Evidence{}).
		Where("story_id = ? AND status = ?", storyID, models.EvidencePending).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("review evidence: %w", err)
	}
	return nil
}

func countStories(tx *gorm.DB, projectID uint) (approved, total int, err error) {
	var t, a int64
	if err := tx.Model(&models.UserStory{}).Where("project_id = ?", projectID).Count(&t).Error; err != nil {
		return 0, 0, fmt.Errorf("count stories: %w", err)
	}
	if err := tx.Model(&models.UserStory{}).Where("project_id = ? AND status = ?", projectID, models.StoryApproved).Count(&a).Error; err != nil {
		return 0, 0, fmt.Errorf("count approved stories: %w", err)
	}
	return int(a), int(t), nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

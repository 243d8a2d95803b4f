package models

import (
	"time"

	"gorm.io/gorm"
)

// StoryStatus is the review status of a user story.
type StoryStatus string

const (
	StoryPending  StoryStatus = "pending"
	StoryInReview StoryStatus = "in_review"
	StoryApproved StoryStatus = "approved"
)

func (s StoryStatus) Valid() bool {
	switch s {
	case StoryPending, StoryInReview, StoryApproved:
		return true
	}
	return false
}

// UserStory is a deliverable inside a project, reviewed on its own
type UserStory struct {
	gorm.Model
	ProjectID   uint        `gorm:"not null;index" json:"project_id"`
	Title       string      `gorm:"not null;default:'User story'" json:"title"`
	Description string      `gorm:"type:text;not null" json:"description"`
	Status      StoryStatus `gorm:"type:varchar(16);not null;index;default:'pending'" json:"status"`

	Project   *Project        `json:"-"`
	Evidences []Evidence      `gorm:"foreignKey:StoryID" json:"evidences,omitempty"`
	Approvals []StoryApproval `gorm:"foreignKey:StoryID" json:"approvals,omitempty"`
}

// StoryOutcome is the decision a manager recorded on a story review.
type StoryOutcome string

const (
	StoryOutcomeApproved StoryOutcome = "approved"
	StoryOutcomeRejected StoryOutcome = "rejected"
)

// StoryApproval is an append-only audit row for a progress review decision
type StoryApproval struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	DecidedAt time.Time    `gorm:"not null;index" json:"decided_at"`
	Outcome   StoryOutcome `gorm:"type:varchar(16);not null" json:"outcome"`
	Comment   string       `gorm:"type:text" json:"comment"`
	StoryID   uint         `gorm:"not null;index" json:"story_id"`
	ManagerID uint         `gorm:"not null;index" json:"manager_id"`

	Story   *UserStory `json:"-"`
	Manager *User      `json:"manager,omitempty"`
}

type EvidenceStatus string

const (
	EvidencePending  EvidenceStatus = "pending"
	EvidenceApproved EvidenceStatus = "approved"
	EvidenceRejected EvidenceStatus = "rejected"
)

// Evidence is an uploaded file backing a story submitted for review
type Evidence struct {
	gorm.Model
	StoryID            uint           `gorm:"not null;index" json:"story_id"`
	FileURL            string         `gorm:"not null" json:"file_url"`
	PublicID           string         `json:"public_id"`
	Format             string         `json:"format"`
	SizeBytes          int64          `json:"size_bytes"`
	UploadedAt         time.Time      `gorm:"not null;index" json:"uploaded_at"`
	Status             EvidenceStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	ManagerObservation *string        `gorm:"type:text" json:"manager_observation,omitempty"`

	Story *UserStory `json:"-"`
}

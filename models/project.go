package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// ProjectStatus is the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "pending"
	ProjectInReview   ProjectStatus = "in_review"
	ProjectReturned   ProjectStatus = "returned"
	ProjectApproved   ProjectStatus = "approved"
	ProjectNoApproved ProjectStatus = "no_approved"
	ProjectCancelled  ProjectStatus = "cancelled"
	ProjectCompleted  ProjectStatus = "completed"
)

// ProjectStatuses lists every known project status.
var ProjectStatuses = []ProjectStatus{
	ProjectPending,
	ProjectInReview,
	ProjectReturned,
	ProjectApproved,
	ProjectNoApproved,
	ProjectCancelled,
	ProjectCompleted,
}

func (s ProjectStatus) Valid() bool {
	for _, known := range ProjectStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// AILevel is the degree of AI adoption a project proposes.
type AILevel string

const (
	AILevelLow      AILevel = "low"      // basic automation
	AILevelMedium   AILevel = "medium"   // ML and data analysis
	AILevelHigh     AILevel = "high"     // deep learning
	AILevelAdvanced AILevel = "advanced" // generative AI
)

func (l AILevel) Valid() bool {
	switch l {
	case AILevelLow, AILevelMedium, AILevelHigh, AILevelAdvanced:
		return true
	}
	return false
}

// Project is an AI-adoption initiative proposed by a leader
type Project struct {
	gorm.Model

	Name        string  `gorm:"not null" json:"name"`
	Description string  `gorm:"type:text;not null" json:"description"`
	AILevel     AILevel `gorm:"column:ai_level;type:varchar(16);not null" json:"ai_level"`
	Document    *string `json:"document,omitempty"`

	// Schedule
	StartDate       time.Time `gorm:"not null" json:"start_date"`
	EndDate         time.Time `gorm:"not null" json:"end_date"`
	CreatedOn       time.Time `gorm:"not null" json:"created_on"`
	EstimatedMonths int       `gorm:"default:0" json:"estimated_months"`

	// Workflow
	Status             ProjectStatus `gorm:"type:varchar(16);not null;index;default:'pending'" json:"status"`
	Incentive          *string       `json:"incentive,omitempty"` // set only on approval
	ReviewStartedAt    *time.Time    `json:"review_started_at,omitempty"`
	CancellationReason *string       `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`

	// Ownership
	CompanyID uint     `gorm:"not null;index" json:"company_id"`
	Company   *Company `json:"company,omitempty"`
	LeaderID  uint     `gorm:"not null;index" json:"leader_id"`
	Leader    *User    `json:"leader,omitempty"`

	// Relations
	Stories   []UserStory       `gorm:"foreignKey:ProjectID" json:"stories,omitempty"`
	Approvals []ProjectApproval `gorm:"foreignKey:ProjectID" json:"approvals,omitempty"`
}

// EstimateMonths returns the number of whole 30-day months between two dates.
func EstimateMonths(start, end time.Time) int {
	days := math.Ceil(math.Abs(end.Sub(start).Hours()) / 24)
	return int(days) / 30
}

// ApprovalOutcome is the decision recorded by a manager on a project.
type ApprovalOutcome string

const (
	OutcomeApproved ApprovalOutcome = "approved"
	OutcomeReturned ApprovalOutcome = "returned"
	OutcomeRejected ApprovalOutcome = "rejected"
)

// ProjectApproval is an append-only audit row, one per manager decision
type ProjectApproval struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	DecidedAt time.Time       `gorm:"not null;index" json:"decided_at"`
	Outcome   ApprovalOutcome `gorm:"type:varchar(16);not null" json:"outcome"`
	Reason    *string         `gorm:"type:text" json:"reason,omitempty"`
	ProjectID uint            `gorm:"not null;index" json:"project_id"`
	ManagerID uint            `gorm:"not null;index" json:"manager_id"`

	Project *Project `json:"project,omitempty"`
	Manager *User    `json:"manager,omitempty"`
}

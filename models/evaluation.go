package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EvaluationStatus is the evaluation lifecycle state.
// DRAFT is the batch-generated placeholder; SUBMITTED is set the moment an
// employee submits; REVIEWED the moment a manager records any score; ARCHIVED
// is an administrative terminal state reachable from anywhere.
type EvaluationStatus string

const (
	StatusDraft     EvaluationStatus = "DRAFT"
	StatusSubmitted EvaluationStatus = "SUBMITTED"
	StatusReviewed  EvaluationStatus = "REVIEWED"
	StatusArchived  EvaluationStatus = "ARCHIVED"
)

// ValidEvaluationStatus reports whether s is one of the four lifecycle states.
func ValidEvaluationStatus(s EvaluationStatus) bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusReviewed, StatusArchived:
		return true
	}
	return false
}

type Evaluation struct {
	ID         string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EmployeeID string  `gorm:"type:uuid;not null;index" json:"employee_id"`
	ReviewerID *string `gorm:"type:uuid;index" json:"reviewer_id,omitempty"`
	ProjectID  *string `gorm:"type:uuid;index" json:"project_id,omitempty"`

	// Display fields captured at submission time; authoritative over the live
	// user record so history survives later renames.
	EmployeeName  string `gorm:"size:255" json:"employee_name,omitempty"`
	EmployeeEmail string `gorm:"size:255" json:"employee_email,omitempty"`

	OverallRating     int                                `gorm:"not null" json:"overall_rating"`
	CompetencyRatings datatypes.JSONType[map[string]int] `json:"competency_ratings"`

	Achievements           string `gorm:"type:text" json:"achievements,omitempty"`
	Challenges             string `gorm:"type:text" json:"challenges,omitempty"`
	Learnings              string `gorm:"type:text" json:"learnings,omitempty"`
	NextPeriodGoals        string `gorm:"type:text" json:"next_period_goals,omitempty"`
	AdditionalFeedback     string `gorm:"type:text" json:"additional_feedback,omitempty"`
	ManagerFeedbackRequest string `gorm:"type:text" json:"manager_feedback_request,omitempty"`

	// Period key: quarters are mapped to a representative month (Q1->1, Q2->4,
	// Q3->7, Q4->10). The (employee, project, year, month) tuple is unique
	// among live rows; soft-deleted evaluations keep their period values, so
	// the constraint is a partial index created during migration rather than a
	// tag-declared one.
	EvaluationMonth *int `gorm:"index" json:"evaluation_month,omitempty"`
	EvaluationYear  *int `gorm:"index" json:"evaluation_year,omitempty"`

	// Manager review fields
	ManagerRating            *int                               `json:"manager_rating,omitempty"`
	ManagerFeedback          string                             `gorm:"type:text" json:"manager_feedback,omitempty"`
	Recommendations          string                             `gorm:"type:text" json:"recommendations,omitempty"`
	ManagerCompetencyRatings datatypes.JSONType[map[string]int] `json:"manager_competency_ratings"`

	Status      EvaluationStatus `gorm:"size:20;not null;default:'DRAFT'" json:"status"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relationships
	Employee *User    `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Reviewer *User    `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Project  *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

package models

import "time"

// PeerReview is a colleague's feedback on an evaluation: free-text
// strengths, weaknesses and suggestions plus four dimension ratings. The
// overall rating is derived from the dimensions, not client-supplied.
type PeerReview struct {
	ID           string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EvaluationID string `gorm:"type:uuid;not null;index" json:"evaluation_id"`
	ReviewerID   string `gorm:"type:uuid;not null;index" json:"reviewer_id"`

	// Denormalized reviewer display fields, captured at review time.
	ReviewerName  string `gorm:"size:255;not null" json:"reviewer_name"`
	ReviewerEmail string `gorm:"size:255;not null" json:"reviewer_email"`

	Strengths   string `gorm:"type:text" json:"strengths,omitempty"`
	Weaknesses  string `gorm:"type:text" json:"weaknesses,omitempty"`
	Suggestions string `gorm:"type:text" json:"suggestions,omitempty"`

	CollaborationRating *int `json:"collaboration_rating,omitempty"`
	CommunicationRating *int `json:"communication_rating,omitempty"`
	TechnicalRating     *int `json:"technical_rating,omitempty"`
	LeadershipRating    *int `json:"leadership_rating,omitempty"`
	OverallRating       *int `json:"overall_rating,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Evaluation *Evaluation `gorm:"foreignKey:EvaluationID" json:"evaluation,omitempty"`
	Reviewer   *User       `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

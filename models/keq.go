package models

import "time"

// Keq is a key evaluation question, one of the scoring criteria
// administrators curate. Questions are never bootstrapped automatically;
// every row is admin-created. Inactive questions stay attached to historical
// evaluations but are not offered for new ones.
type Keq struct {
	ID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Category    string `gorm:"size:200;not null" json:"category"`
	Description string `gorm:"size:2000" json:"description,omitempty"`
	OrderIndex  int    `gorm:"not null;default:1" json:"order_index"`

	// First period the question applies to; nil means always applicable.
	EffectiveFromYear    *int `json:"effective_from_year,omitempty"`
	EffectiveFromQuarter *int `json:"effective_from_quarter,omitempty"`

	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is name-unique. Membership (user_projects) drives both evaluation
// submission validation and manager visibility; stewardship (manager_projects)
// is intended to hold one manager per project, enforced at assignment time.
type Project struct {
	ID          string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string         `gorm:"uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Users    []User `gorm:"many2many:user_projects" json:"users,omitempty"`
	Managers []User `gorm:"many2many:manager_projects" json:"managers,omitempty"`
}

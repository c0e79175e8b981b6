package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role values carried in User.Roles. The engine trusts role claims handed to
// it by the HTTP boundary and only re-derives project-based authorization.
const (
	RoleEmployee = "EMPLOYEE"
	RoleManager  = "MANAGER"
	RoleAdmin    = "ADMIN"
)

type User struct {
	ID         string                      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Username   string                      `gorm:"uniqueIndex;not null" json:"username"`
	Email      string                      `gorm:"uniqueIndex;not null" json:"email"`
	Password   string                      `gorm:"size:255" json:"-"` // Hashed password (excluded from JSON)
	FirstName  string                      `gorm:"size:255" json:"first_name,omitempty"`
	LastName   string                      `gorm:"size:255" json:"last_name,omitempty"`
	Department string                      `gorm:"size:255" json:"department,omitempty"`
	Position   string                      `gorm:"size:255" json:"position,omitempty"`
	Roles      datatypes.JSONSlice[string] `json:"roles"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
	DeletedAt  gorm.DeletedAt              `gorm:"index" json:"-"`

	// Relationships
	Projects        []Project      `gorm:"many2many:user_projects" json:"projects,omitempty"`
	ManagedProjects []Project      `gorm:"many2many:manager_projects" json:"managed_projects,omitempty"`
	Evaluations     []Evaluation   `gorm:"foreignKey:EmployeeID" json:"evaluations,omitempty"`
	Reviews         []Evaluation   `gorm:"foreignKey:ReviewerID" json:"reviews,omitempty"`
	RefreshTokens   []RefreshToken `gorm:"foreignKey:UserID" json:"refresh_tokens,omitempty"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// FullName joins first and last name, trimming whichever is missing.
func (u *User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

type RefreshToken struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string         `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time      `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

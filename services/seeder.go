package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"perfreview/models"
	"perfreview/repository"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

// NewDatabaseSeeder creates a new database seeder
func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	// Hash default password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	projects := []models.Project{
		{Name: "Atlas Platform", Description: "Core platform and shared infrastructure"},
		{Name: "Mobile App", Description: "Customer-facing mobile application"},
		{Name: "Data Pipeline", Description: "Analytics ingestion and reporting"},
	}

	for i := range projects {
		if err := s.seedProject(ctx, &projects[i]); err != nil {
			slog.Error("Failed to seed project", "name", projects[i].Name, "error", err)
		}
	}

	users := []models.User{
		{
			Username:   "admin",
			Email:      "admin@example.com",
			Password:   string(hashedPassword),
			FirstName:  "Site",
			LastName:   "Admin",
			Department: "Operations",
			Roles:      []string{models.RoleAdmin},
		},
		{
			Username:   "mpatel",
			Email:      "mpatel@example.com",
			Password:   string(hashedPassword),
			FirstName:  "Maya",
			LastName:   "Patel",
			Department: "Engineering",
			Position:   "Engineering Manager",
			Roles:      []string{models.RoleManager},
		},
		{
			Username:   "jdoe",
			Email:      "jdoe@example.com",
			Password:   string(hashedPassword),
			FirstName:  "Jane",
			LastName:   "Doe",
			Department: "Engineering",
			Position:   "Software Engineer",
			Roles:      []string{models.RoleEmployee},
		},
		{
			Username:   "bsmith",
			Email:      "bsmith@example.com",
			Password:   string(hashedPassword),
			FirstName:  "Ben",
			LastName:   "Smith",
			Department: "Engineering",
			Position:   "Software Engineer",
			Roles:      []string{models.RoleEmployee},
		},
	}

	for i := range users {
		if err := s.seedUser(ctx, &users[i]); err != nil {
			slog.Error("Failed to seed user", "username", users[i].Username, "error", err)
		}
	}

	// Wire memberships: employees onto the platform project, the manager
	// managing it. Assignments replace, so re-running stays stable.
	platform, err := s.repo.GetProjectByName(ctx, "Atlas Platform")
	if err != nil || platform == nil {
		return fmt.Errorf("seed project lookup failed: %w", err)
	}

	for _, username := range []string{"jdoe", "bsmith"} {
		user, err := s.repo.GetUserByUsername(ctx, username)
		if err != nil || user == nil {
			slog.Error("Seed user lookup failed", "username", username, "error", err)
			continue
		}
		if err := s.repo.ReplaceUserProjects(ctx, user, []models.Project{*platform}); err != nil {
			slog.Error("Failed to assign seed project", "username", username, "error", err)
		}
	}

	manager, err := s.repo.GetUserByUsername(ctx, "mpatel")
	if err != nil || manager == nil {
		return fmt.Errorf("seed manager lookup failed: %w", err)
	}
	if err := s.repo.ReplaceManagedProjects(ctx, manager, []models.Project{*platform}); err != nil {
		slog.Error("Failed to assign managed project", "error", err)
	}

	slog.Info("Database seeding completed successfully")
	return nil
}

// seedUser seeds a single user (idempotent)
func (s *DatabaseSeeder) seedUser(ctx context.Context, user *models.User) error {
	existing, err := s.repo.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return fmt.Errorf("error checking user %s: %w", user.Username, err)
	}
	if existing != nil {
		slog.Info("User already exists, skipping", "username", user.Username)
		return nil
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Username, err)
	}

	slog.Info("Created user", "username", user.Username)
	return nil
}

// seedProject seeds a single project (idempotent)
func (s *DatabaseSeeder) seedProject(ctx context.Context, project *models.Project) error {
	existing, err := s.repo.GetProjectByName(ctx, project.Name)
	if err != nil {
		return fmt.Errorf("error checking project %s: %w", project.Name, err)
	}
	if existing != nil {
		slog.Info("Project already exists, skipping", "name", project.Name)
		*project = *existing
		return nil
	}

	if err := s.repo.CreateProject(ctx, project); err != nil {
		return fmt.Errorf("failed to create project %s: %w", project.Name, err)
	}

	slog.Info("Created project", "name", project.Name)
	return nil
}

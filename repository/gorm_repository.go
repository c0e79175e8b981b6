package repository

import (
	"context"
	"log/slog"
	"time"

	"perfreview/models"

	"gorm.io/gorm"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	if err := r.db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Evaluation{},
		&models.RefreshToken{},
		&models.Keq{},
		&models.PeerReview{},
	); err != nil {
		return err
	}

	// The period uniqueness only covers live rows: a soft-deleted evaluation
	// keeps its period values and must not block resubmission, so the index
	// is partial and created here instead of via a struct tag.
	return r.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_evaluation_period
		ON evaluations (employee_id, project_id, evaluation_year, evaluation_month)
		WHERE deleted_at IS NULL`).Error
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create user", "error", err)
		return err
	}
	slog.Info("User created", "user_id", user.ID, "username", user.Username)
	return nil
}

func (r *GORMRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by username", "error", err, "username", username)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

// GetUserWithProjects loads a user with both membership and managed projects,
// the shape the authorization check needs.
func (r *GORMRepository) GetUserWithProjects(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Projects").
		Preload("ManagedProjects").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user with projects", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		slog.Error("Failed to get users", "error", err)
		return nil, err
	}
	return users, nil
}

func (r *GORMRepository) SaveUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		slog.Error("Failed to save user", "error", err, "user_id", user.ID)
		return err
	}
	return nil
}

// ReplaceUserProjects swaps the user's membership set in one association write.
func (r *GORMRepository) ReplaceUserProjects(ctx context.Context, user *models.User, projects []models.Project) error {
	if err := r.db.WithContext(ctx).Model(user).Association("Projects").Replace(projects); err != nil {
		slog.Error("Failed to replace user projects", "error", err, "user_id", user.ID)
		return err
	}
	slog.Info("User projects replaced", "user_id", user.ID, "count", len(projects))
	return nil
}

// ReplaceManagedProjects swaps the manager's stewardship set.
func (r *GORMRepository) ReplaceManagedProjects(ctx context.Context, user *models.User, projects []models.Project) error {
	if err := r.db.WithContext(ctx).Model(user).Association("ManagedProjects").Replace(projects); err != nil {
		slog.Error("Failed to replace managed projects", "error", err, "user_id", user.ID)
		return err
	}
	slog.Info("Managed projects replaced", "user_id", user.ID, "count", len(projects))
	return nil
}

func (r *GORMRepository) DeleteUser(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{}).Error; err != nil {
		slog.Error("Failed to delete user", "error", err, "user_id", id)
		return err
	}
	slog.Info("User deleted", "user_id", id)
	return nil
}

// GetManagersForProjectIDs returns the users holding stewardship of any of the
// given projects.
func (r *GORMRepository) GetManagersForProjectIDs(ctx context.Context, projectIDs []string) ([]models.User, error) {
	var managers []models.User
	if len(projectIDs) == 0 {
		return managers, nil
	}
	err := r.db.WithContext(ctx).
		Distinct("users.*").
		Joins("JOIN manager_projects mp ON mp.user_id = users.id").
		Where("mp.project_id IN ?", projectIDs).
		Find(&managers).Error
	if err != nil {
		slog.Error("Failed to get managers for projects", "error", err)
		return nil, err
	}
	return managers, nil
}

// Project operations
func (r *GORMRepository) CreateProject(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		slog.Error("Failed to create project", "error", err, "name", project.Name)
		return err
	}
	slog.Info("Project created", "project_id", project.ID, "name", project.Name)
	return nil
}

func (r *GORMRepository) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get project by ID", "error", err, "project_id", id)
		return nil, err
	}
	return &project, nil
}

func (r *GORMRepository) GetProjectByName(ctx context.Context, name string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get project by name", "error", err, "name", name)
		return nil, err
	}
	return &project, nil
}

func (r *GORMRepository) GetProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.WithContext(ctx).Find(&projects).Error; err != nil {
		slog.Error("Failed to get projects", "error", err)
		return nil, err
	}
	return projects, nil
}

func (r *GORMRepository) GetProjectsByIDs(ctx context.Context, ids []string) ([]models.Project, error) {
	var projects []models.Project
	if len(ids) == 0 {
		return projects, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&projects).Error; err != nil {
		slog.Error("Failed to get projects by IDs", "error", err)
		return nil, err
	}
	return projects, nil
}

// Token operations
func (r *GORMRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", token, time.Now()).First(&refreshToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get refresh token", "error", err)
		return nil, err
	}
	return &refreshToken, nil
}

func (r *GORMRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete user refresh tokens", "error", err, "user_id", userID)
		return err
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"perfreview/models"
)

// ProjectService manages the project catalog and both membership edges:
// employee membership (user_projects) and manager assignment
// (manager_projects).
type ProjectService struct {
	projects ProjectStore
	users    UserStore
	identity *IdentityService
}

func NewProjectService(projects ProjectStore, users UserStore, identity *IdentityService) *ProjectService {
	return &ProjectService{projects: projects, users: users, identity: identity}
}

func (s *ProjectService) CreateProject(ctx context.Context, name, description string) (*models.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidArgument)
	}
	existing, err := s.projects.GetProjectByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: project %q already exists", ErrInvalidArgument, name)
	}

	project := &models.Project{Name: name, Description: description}
	if err := s.projects.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	slog.Info("Project created", "project_id", project.ID, "name", name)
	return project, nil
}

func (s *ProjectService) GetProjects(ctx context.Context) ([]models.Project, error) {
	return s.projects.GetProjects(ctx)
}

func (s *ProjectService) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}
	return project, nil
}

// AssignProjectsToUser replaces the user's membership set with the given
// project ids. Unknown project ids are rejected rather than skipped.
func (s *ProjectService) AssignProjectsToUser(ctx context.Context, userID string, projectIDs []string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	projects, err := s.resolveProjects(ctx, projectIDs)
	if err != nil {
		return nil, err
	}
	if err := s.users.ReplaceUserProjects(ctx, user, projects); err != nil {
		return nil, err
	}
	slog.Info("Projects assigned", "user_id", userID, "project_count", len(projects))
	return s.users.GetUserWithProjects(ctx, userID)
}

// AssignProjectsToCurrentUser resolves the caller by reference, creating the
// profile on first contact, then replaces their membership set.
func (s *ProjectService) AssignProjectsToCurrentUser(ctx context.Context, userRef string, projectIDs []string) (*models.User, error) {
	user, err := s.identity.ResolveOrCreate(ctx, userRef)
	if err != nil {
		return nil, err
	}
	return s.AssignProjectsToUser(ctx, user.ID, projectIDs)
}

// AssignManagedProjectsToManager replaces a manager's managed-project set.
// Each project may have at most one manager; assigning a project already
// managed by someone else fails the whole request.
func (s *ProjectService) AssignManagedProjectsToManager(ctx context.Context, managerID string, projectIDs []string) (*models.User, error) {
	manager, err := s.users.GetUserByID(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if manager == nil {
		return nil, fmt.Errorf("%w: manager %s", ErrNotFound, managerID)
	}
	if !manager.HasRole(models.RoleManager) {
		return nil, fmt.Errorf("%w: user %s is not a manager", ErrInvalidArgument, managerID)
	}

	projects, err := s.resolveProjects(ctx, projectIDs)
	if err != nil {
		return nil, err
	}

	if len(projectIDs) > 0 {
		holders, err := s.users.GetManagersForProjectIDs(ctx, projectIDs)
		if err != nil {
			return nil, err
		}
		for _, holder := range holders {
			if holder.ID != managerID {
				return nil, fmt.Errorf("%w: a project in the set is already managed by %s", ErrInvalidArgument, holder.Username)
			}
		}
	}

	if err := s.users.ReplaceManagedProjects(ctx, manager, projects); err != nil {
		return nil, err
	}
	slog.Info("Managed projects assigned", "manager_id", managerID, "project_count", len(projects))
	return s.users.GetUserWithProjects(ctx, managerID)
}

// GetManagersForProjects returns the managers holding any of the given
// projects. Empty input yields an empty result.
func (s *ProjectService) GetManagersForProjects(ctx context.Context, projectIDs []string) ([]models.User, error) {
	if len(projectIDs) == 0 {
		return []models.User{}, nil
	}
	return s.users.GetManagersForProjectIDs(ctx, projectIDs)
}

func (s *ProjectService) resolveProjects(ctx context.Context, projectIDs []string) ([]models.Project, error) {
	if len(projectIDs) == 0 {
		return []models.Project{}, nil
	}
	projects, err := s.projects.GetProjectsByIDs(ctx, projectIDs)
	if err != nil {
		return nil, err
	}
	if len(projects) != len(projectIDs) {
		return nil, fmt.Errorf("%w: one or more project ids do not exist", ErrInvalidArgument)
	}
	return projects, nil
}

package services

import (
	"context"
	"errors"
	"testing"

	"perfreview/models"
)

func newProjectService(store *fakeStore) *ProjectService {
	identity := NewIdentityService(store, store)
	return NewProjectService(store, store, identity)
}

func TestCreateProjectRejectsDuplicateName(t *testing.T) {
	store := newFakeStore()
	service := newProjectService(store)

	if _, err := service.CreateProject(context.Background(), "Atlas Platform", "core"); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if _, err := service.CreateProject(context.Background(), "Atlas Platform", "again"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("duplicate name error = %v, expected ErrInvalidArgument", err)
	}
	if _, err := service.CreateProject(context.Background(), "", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty name error = %v, expected ErrInvalidArgument", err)
	}
}

func TestAssignProjectsToUserReplacesSet(t *testing.T) {
	store := newFakeStore()
	service := newProjectService(store)

	atlas := store.addProject("Atlas Platform")
	mobile := store.addProject("Mobile App")
	user := store.addUser(models.User{Username: "jdoe", Email: "jdoe@example.com", Projects: []models.Project{*atlas}})

	updated, err := service.AssignProjectsToUser(context.Background(), user.ID, []string{mobile.ID})
	if err != nil {
		t.Fatalf("AssignProjectsToUser failed: %v", err)
	}
	if len(updated.Projects) != 1 || updated.Projects[0].ID != mobile.ID {
		t.Errorf("projects = %v, expected just the mobile project", updated.Projects)
	}

	// Unknown ids fail the whole assignment.
	if _, err := service.AssignProjectsToUser(context.Background(), user.ID, []string{"missing"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown project error = %v, expected ErrInvalidArgument", err)
	}
	if _, err := service.AssignProjectsToUser(context.Background(), "ghost", []string{mobile.ID}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user error = %v, expected ErrNotFound", err)
	}
}

// Assigning to the caller creates their identity on first contact.
func TestAssignProjectsToCurrentUserCreatesIdentity(t *testing.T) {
	store := newFakeStore()
	service := newProjectService(store)

	atlas := store.addProject("Atlas Platform")

	updated, err := service.AssignProjectsToCurrentUser(context.Background(), "jane.doe@corp.com", []string{atlas.ID})
	if err != nil {
		t.Fatalf("AssignProjectsToCurrentUser failed: %v", err)
	}
	if updated.Username != "jane.doe" {
		t.Errorf("username = %q, expected jane.doe", updated.Username)
	}
	if len(updated.Projects) != 1 {
		t.Errorf("projects = %v, expected the atlas project", updated.Projects)
	}
}

func TestAssignManagedProjectsEnforcesSingleManager(t *testing.T) {
	store := newFakeStore()
	service := newProjectService(store)

	atlas := store.addProject("Atlas Platform")
	holder := store.addUser(models.User{
		Username:        "mpatel",
		Email:           "mpatel@example.com",
		Roles:           []string{models.RoleManager},
		ManagedProjects: []models.Project{*atlas},
	})
	rival := store.addUser(models.User{
		Username: "other",
		Email:    "other@example.com",
		Roles:    []string{models.RoleManager},
	})
	employee := store.addUser(models.User{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Roles:    []string{models.RoleEmployee},
	})

	// A second manager cannot take an already-managed project.
	if _, err := service.AssignManagedProjectsToManager(context.Background(), rival.ID, []string{atlas.ID}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("takeover error = %v, expected ErrInvalidArgument", err)
	}

	// Re-assigning to the current holder is fine.
	if _, err := service.AssignManagedProjectsToManager(context.Background(), holder.ID, []string{atlas.ID}); err != nil {
		t.Errorf("re-assignment to holder failed: %v", err)
	}

	// Non-managers cannot hold managed projects.
	if _, err := service.AssignManagedProjectsToManager(context.Background(), employee.ID, []string{atlas.ID}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("non-manager error = %v, expected ErrInvalidArgument", err)
	}
}

func TestGetManagersForProjects(t *testing.T) {
	store := newFakeStore()
	service := newProjectService(store)

	atlas := store.addProject("Atlas Platform")
	mobile := store.addProject("Mobile App")
	store.addUser(models.User{
		Username:        "mpatel",
		Email:           "mpatel@example.com",
		Roles:           []string{models.RoleManager},
		ManagedProjects: []models.Project{*atlas},
	})

	managers, err := service.GetManagersForProjects(context.Background(), []string{atlas.ID, mobile.ID})
	if err != nil {
		t.Fatalf("GetManagersForProjects failed: %v", err)
	}
	if len(managers) != 1 || managers[0].Username != "mpatel" {
		t.Errorf("managers = %v, expected just mpatel", managers)
	}

	empty, err := service.GetManagersForProjects(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty input returned %v, %v; expected empty, nil", empty, err)
	}
}

package services

import (
	"context"
	"testing"

	"perfreview/models"
)

func TestIsManagerAuthorizedForEmployee(t *testing.T) {
	store := newFakeStore()
	authz := NewAuthorizationService(store)

	atlas := store.addProject("Atlas Platform")
	mobile := store.addProject("Mobile App")

	manager := store.addUser(models.User{
		Username:        "mpatel",
		Email:           "mpatel@example.com",
		Roles:           []string{models.RoleManager},
		ManagedProjects: []models.Project{*atlas},
	})

	member := store.addUser(models.User{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Projects: []models.Project{*atlas, *mobile},
	})
	outsider := store.addUser(models.User{
		Username: "bsmith",
		Email:    "bsmith@example.com",
		Projects: []models.Project{*mobile},
	})
	unassigned := store.addUser(models.User{
		Username: "new",
		Email:    "new@example.com",
	})

	tests := []struct {
		name      string
		managerID string
		employee  *models.User
		expected  bool
	}{
		{
			name:      "Overlapping project grants access",
			managerID: manager.ID,
			employee:  member,
			expected:  true,
		},
		{
			name:      "No overlap denies access",
			managerID: manager.ID,
			employee:  outsider,
			expected:  false,
		},
		{
			name:      "Employee without projects is denied",
			managerID: manager.ID,
			employee:  unassigned,
			expected:  false,
		},
		{
			name:      "Nil employee is denied",
			managerID: manager.ID,
			employee:  nil,
			expected:  false,
		},
		{
			name:      "Unknown manager is denied",
			managerID: "missing",
			employee:  member,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.IsManagerAuthorizedForEmployee(context.Background(), tt.managerID, tt.employee); got != tt.expected {
				t.Errorf("IsManagerAuthorizedForEmployee() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

// A storage failure during the manager lookup must deny, not error out.
func TestAuthorizationFailsClosed(t *testing.T) {
	store := newFakeStore()
	authz := NewAuthorizationService(store)

	project := store.addProject("Atlas Platform")
	manager := store.addUser(models.User{
		Username:        "mpatel",
		Email:           "mpatel@example.com",
		ManagedProjects: []models.Project{*project},
	})
	employee := store.addUser(models.User{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Projects: []models.Project{*project},
	})

	if !authz.IsManagerAuthorizedForEmployee(context.Background(), manager.ID, employee) {
		t.Fatal("expected access before inducing the failure")
	}

	store.failUserReads = true
	if authz.IsManagerAuthorizedForEmployee(context.Background(), manager.ID, employee) {
		t.Error("authorization granted despite storage failure")
	}
}

// Access is manager-specific: managing some project is not enough, it must be
// one of the employee's.
func TestAuthorizationNotTransitive(t *testing.T) {
	store := newFakeStore()
	authz := NewAuthorizationService(store)

	atlas := store.addProject("Atlas Platform")
	mobile := store.addProject("Mobile App")

	atlasManager := store.addUser(models.User{
		Username:        "a",
		Email:           "a@example.com",
		ManagedProjects: []models.Project{*atlas},
	})
	mobileManager := store.addUser(models.User{
		Username:        "b",
		Email:           "b@example.com",
		ManagedProjects: []models.Project{*mobile},
	})
	employee := store.addUser(models.User{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Projects: []models.Project{*atlas},
	})

	if !authz.IsManagerAuthorizedForEmployee(context.Background(), atlasManager.ID, employee) {
		t.Error("atlas manager should see atlas member")
	}
	if authz.IsManagerAuthorizedForEmployee(context.Background(), mobileManager.ID, employee) {
		t.Error("mobile manager should not see atlas member")
	}
}

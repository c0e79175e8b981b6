package services

import (
	"context"
	"errors"
	"testing"

	"perfreview/models"
)

func TestIsAnonymousRef(t *testing.T) {
	tests := []struct {
		ref      string
		expected bool
	}{
		{"", true},
		{"   ", true},
		{"anonymous", true},
		{"Anonymous", true},
		{"anonymousUser", true},
		{"anonymoususer@corp.com", true},
		{"jdoe", false},
		{"jane.doe@corp.com", false},
		{"anon", false},
	}

	for _, tt := range tests {
		if got := IsAnonymousRef(tt.ref); got != tt.expected {
			t.Errorf("IsAnonymousRef(%q) = %v, expected %v", tt.ref, got, tt.expected)
		}
	}
}

func TestResolveOrCreateFromEmail(t *testing.T) {
	store := newFakeStore()
	identity := NewIdentityService(store, store)

	user, err := identity.ResolveOrCreate(context.Background(), "jane.doe@corp.com")
	if err != nil {
		t.Fatalf("ResolveOrCreate failed: %v", err)
	}

	if user.Username != "jane.doe" {
		t.Errorf("username = %q, expected %q", user.Username, "jane.doe")
	}
	if user.Email != "jane.doe@corp.com" {
		t.Errorf("email = %q, expected the original address", user.Email)
	}
	if user.FirstName != "Jane" || user.LastName != "Doe" {
		t.Errorf("names = %q %q, expected Jane Doe", user.FirstName, user.LastName)
	}
	if !user.HasRole(models.RoleEmployee) {
		t.Errorf("roles = %v, expected EMPLOYEE", user.Roles)
	}
	if user.Password == "" || user.Password == "changeme" {
		t.Error("placeholder password not hashed")
	}
}

func TestResolveOrCreateFromUsername(t *testing.T) {
	store := newFakeStore()
	identity := NewIdentityService(store, store)

	user, err := identity.ResolveOrCreate(context.Background(), "bsmith")
	if err != nil {
		t.Fatalf("ResolveOrCreate failed: %v", err)
	}
	if user.Email != "bsmith@example.com" {
		t.Errorf("email = %q, expected synthesized address", user.Email)
	}
	if user.FirstName != "Bsmith" || user.LastName != "" {
		t.Errorf("names = %q %q, expected Bsmith with empty last name", user.FirstName, user.LastName)
	}
}

// Resolving the same reference twice must return the same row.
func TestResolveOrCreateDeterministic(t *testing.T) {
	store := newFakeStore()
	identity := NewIdentityService(store, store)

	first, err := identity.ResolveOrCreate(context.Background(), "jane.doe@corp.com")
	if err != nil {
		t.Fatalf("first ResolveOrCreate failed: %v", err)
	}
	second, err := identity.ResolveOrCreate(context.Background(), "jane.doe@corp.com")
	if err != nil {
		t.Fatalf("second ResolveOrCreate failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("resolution not deterministic: %s vs %s", first.ID, second.ID)
	}
	if len(store.users) != 1 {
		t.Errorf("store holds %d users, expected 1", len(store.users))
	}
}

func TestResolveOrCreateRejectsAnonymous(t *testing.T) {
	store := newFakeStore()
	identity := NewIdentityService(store, store)

	if _, err := identity.ResolveOrCreate(context.Background(), "anonymousUser"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, expected ErrUnauthorized", err)
	}
}

// The read path returns empty results on a miss and never creates identities.
func TestGetProjectsForUserNeverCreates(t *testing.T) {
	store := newFakeStore()
	identity := NewIdentityService(store, store)

	projects, err := identity.GetProjectsForUser(context.Background(), "ghost@corp.com")
	if err != nil {
		t.Fatalf("GetProjectsForUser failed: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("projects = %v, expected empty", projects)
	}
	if len(store.users) != 0 {
		t.Errorf("read path created %d users", len(store.users))
	}
}

func TestCreateManager(t *testing.T) {
	store := newFakeStore()
	identity := NewIdentityService(store, store)

	manager, err := identity.CreateManager(context.Background(), "mpatel", "mpatel@example.com", "secret", "Maya", "Patel", "Engineering")
	if err != nil {
		t.Fatalf("CreateManager failed: %v", err)
	}
	if !manager.HasRole(models.RoleManager) {
		t.Errorf("roles = %v, expected MANAGER", manager.Roles)
	}

	// Duplicate username is rejected.
	if _, err := identity.CreateManager(context.Background(), "mpatel", "else@example.com", "secret", "", "", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("duplicate username error = %v, expected ErrInvalidArgument", err)
	}
	// Duplicate email is rejected.
	if _, err := identity.CreateManager(context.Background(), "other", "mpatel@example.com", "secret", "", "", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("duplicate email error = %v, expected ErrInvalidArgument", err)
	}
}

func TestGetManagers(t *testing.T) {
	store := newFakeStore()
	identity := NewIdentityService(store, store)

	store.addUser(models.User{Username: "mpatel", Email: "m@example.com", Roles: []string{models.RoleManager}})
	store.addUser(models.User{Username: "jdoe", Email: "j@example.com", Roles: []string{models.RoleEmployee}})

	managers, err := identity.GetManagers(context.Background())
	if err != nil {
		t.Fatalf("GetManagers failed: %v", err)
	}
	if len(managers) != 1 || managers[0].Username != "mpatel" {
		t.Errorf("managers = %v, expected just mpatel", managers)
	}
}

func TestGetManagerByIDRejectsNonManagers(t *testing.T) {
	store := newFakeStore()
	identity := NewIdentityService(store, store)

	employee := store.addUser(models.User{Username: "jdoe", Email: "j@example.com", Roles: []string{models.RoleEmployee}})

	if _, err := identity.GetManagerByID(context.Background(), employee.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("employee lookup error = %v, expected ErrNotFound", err)
	}
	if _, err := identity.GetManagerByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id error = %v, expected ErrNotFound", err)
	}
}

func TestResolveNeverCreates(t *testing.T) {
	store := newFakeStore()
	identity := NewIdentityService(store, store)

	principal, err := identity.Resolve(context.Background(), "stranger@corp.com")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if principal.ID != "" {
		t.Errorf("transient principal has ID %q, expected none", principal.ID)
	}
	if principal.Username != "stranger" {
		t.Errorf("username = %q, expected %q", principal.Username, "stranger")
	}
	if len(store.users) != 0 {
		t.Errorf("Resolve created %d identity rows, expected 0", len(store.users))
	}

	// A stored user wins over the synthesized principal.
	stored := store.addUser(models.User{Username: "jdoe", Email: "jdoe@example.com"})
	resolved, err := identity.Resolve(context.Background(), "jdoe")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.ID != stored.ID {
		t.Errorf("resolved ID = %q, expected stored user %q", resolved.ID, stored.ID)
	}

	if _, err := identity.Resolve(context.Background(), "anonymous"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous resolve error = %v, expected ErrUnauthorized", err)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"perfreview/models"

	"golang.org/x/crypto/bcrypt"
)

// IdentityService maps loosely-typed caller references (username or email
// strings) onto durable user rows, lazily creating a minimal EMPLOYEE identity
// the first time an unknown reference submits data. Creation only ever happens
// on write paths; read paths return empty results on a miss.
type IdentityService struct {
	users    UserStore
	projects ProjectStore
}

func NewIdentityService(users UserStore, projects ProjectStore) *IdentityService {
	return &IdentityService{users: users, projects: projects}
}

// IsAnonymousRef reports whether the caller reference is an unauthenticated
// placeholder principal. Such references must never be auto-created.
func IsAnonymousRef(ref string) bool {
	lk := strings.ToLower(strings.TrimSpace(ref))
	return lk == "" || lk == "anonymous" || lk == "anonymoususer" || strings.HasPrefix(lk, "anonymoususer@")
}

// Find looks a user up by username first, then by email. Nil on miss.
func (s *IdentityService) Find(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, usernameOrEmail)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	return s.users.GetUserByEmail(ctx, usernameOrEmail)
}

// Resolve finds the stored user for the reference, or synthesizes a
// transient principal when none exists. Nothing is written here: identity
// rows only come into being when a write path goes through ResolveOrCreate,
// so a read by an unknown reference never leaves a row behind.
func (s *IdentityService) Resolve(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	ref := strings.TrimSpace(usernameOrEmail)
	if IsAnonymousRef(ref) {
		return nil, fmt.Errorf("%w: caller reference %q is not a resolvable identity", ErrUnauthorized, usernameOrEmail)
	}

	user, err := s.Find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	return identityFromRef(ref), nil
}

// ResolveOrCreate resolves the reference to an existing user, or creates a
// minimal EMPLOYEE identity derived from it. The created row is persisted
// before return so dependent writes can foreign-key to it.
func (s *IdentityService) ResolveOrCreate(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	ref := strings.TrimSpace(usernameOrEmail)
	if IsAnonymousRef(ref) {
		return nil, fmt.Errorf("%w: caller reference %q is not a resolvable identity", ErrUnauthorized, usernameOrEmail)
	}

	user, err := s.Find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = identityFromRef(ref)

	// Placeholder credential; the account cannot log in until an admin sets a
	// real password.
	hashed, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder password: %w", err)
	}
	user.Password = string(hashed)

	if err := s.users.CreateUser(ctx, user); err != nil {
		// Two concurrent resolutions of the same unknown reference can both
		// miss the read; the unique constraints on username/email make the
		// second insert fail, so re-read and return the winner.
		if existing, findErr := s.Find(ctx, ref); findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create identity for %q: %w", usernameOrEmail, err)
	}

	slog.Info("Identity created lazily", "user_id", user.ID, "username", user.Username, "email", user.Email)
	return user, nil
}

// GetProjectsForUser is the read-only variant of resolution: on a miss it
// returns an empty set and never creates an identity.
func (s *IdentityService) GetProjectsForUser(ctx context.Context, usernameOrEmail string) ([]models.Project, error) {
	user, err := s.Find(ctx, strings.TrimSpace(usernameOrEmail))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []models.Project{}, nil
	}
	loaded, err := s.users.GetUserWithProjects(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		return []models.Project{}, nil
	}
	return loaded.Projects, nil
}

// CreateManager registers a manager account with a real credential.
func (s *IdentityService) CreateManager(ctx context.Context, username, email, password, firstName, lastName, department string) (*models.User, error) {
	if existing, err := s.users.GetUserByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: username already exists", ErrInvalidArgument)
	}
	if existing, err := s.users.GetUserByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: email already in use", ErrInvalidArgument)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	manager := &models.User{
		Username:   username,
		Email:      email,
		Password:   string(hashed),
		FirstName:  firstName,
		LastName:   lastName,
		Department: department,
		Roles:      []string{models.RoleManager},
	}
	if err := s.users.CreateUser(ctx, manager); err != nil {
		return nil, fmt.Errorf("failed to create manager: %w", err)
	}

	slog.Info("Manager created", "user_id", manager.ID, "username", username)
	return manager, nil
}

// GetManagers lists all users carrying the MANAGER role.
func (s *IdentityService) GetManagers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	managers := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.HasRole(models.RoleManager) {
			managers = append(managers, u)
		}
	}
	return managers, nil
}

func (s *IdentityService) GetManagerByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.HasRole(models.RoleManager) {
		return nil, fmt.Errorf("%w: manager %s", ErrNotFound, id)
	}
	return user, nil
}

func (s *IdentityService) DeleteManager(ctx context.Context, id string) error {
	if _, err := s.GetManagerByID(ctx, id); err != nil {
		return err
	}
	return s.users.DeleteUser(ctx, id)
}

// identityFromRef derives a minimal EMPLOYEE identity from a raw reference:
// the local part of an email becomes the username, a bare username gets a
// synthetic email. The returned user has no ID and is not persisted.
func identityFromRef(ref string) *models.User {
	username := ref
	email := ref
	if strings.Contains(ref, "@") {
		if local := strings.SplitN(ref, "@", 2)[0]; local != "" {
			username = local
		}
	} else {
		email = ref + "@example.com"
	}

	firstName, lastName := deriveNames(username)
	return &models.User{
		Username:  username,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Roles:     []string{models.RoleEmployee},
	}
}

// deriveNames extracts a display name from a username, treating a dot as the
// first/last separator ("jane.doe" -> "Jane", "Doe").
func deriveNames(username string) (first, last string) {
	if username == "" {
		return "", ""
	}
	if strings.Contains(username, ".") {
		parts := strings.SplitN(username, ".", 2)
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return capitalize(parts[0]), capitalize(parts[1])
		}
	}
	return capitalize(username), ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

package services

import (
	"context"
	"log/slog"

	"perfreview/models"
)

// AuthorizationService decides whether a manager may view or grade a given
// employee's evaluation, based purely on project-membership overlap. Role
// claims are the boundary's problem; this is the only authorization the engine
// re-derives itself.
type AuthorizationService struct {
	users UserStore
}

func NewAuthorizationService(users UserStore) *AuthorizationService {
	return &AuthorizationService{users: users}
}

// IsManagerAuthorizedForEmployee is true iff the employee's project set
// intersects the manager's managed-project set. Every failure mode — missing
// employee, missing manager, empty sets, storage errors — resolves to false;
// the check never errors out.
func (s *AuthorizationService) IsManagerAuthorizedForEmployee(ctx context.Context, managerID string, employee *models.User) bool {
	if employee == nil || employee.ID == "" {
		return false
	}
	manager, err := s.users.GetUserWithProjects(ctx, managerID)
	if err != nil {
		slog.Warn("Authorization check failed, denying", "error", err, "manager_id", managerID)
		return false
	}
	if manager == nil || len(manager.ManagedProjects) == 0 {
		return false
	}
	if len(employee.Projects) == 0 {
		return false
	}
	employeeProjects := make(map[string]struct{}, len(employee.Projects))
	for _, p := range employee.Projects {
		employeeProjects[p.ID] = struct{}{}
	}
	for _, p := range manager.ManagedProjects {
		if _, ok := employeeProjects[p.ID]; ok {
			return true
		}
	}
	return false
}

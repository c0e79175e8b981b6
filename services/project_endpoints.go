package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"perfreview/models"
)

type ProjectEndpoints struct {
	projects *ProjectService
	identity *IdentityService
}

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type AssignProjectsRequest struct {
	ProjectIDs []string `json:"projectIds"`
}

type CreateManagerRequest struct {
	Username   string `json:"username" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Password   string `json:"password" validate:"required"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Department string `json:"department"`
}

type ProjectListResponse struct {
	Projects []models.Project `json:"projects"`
	Count    int              `json:"count"`
}

type UserListResponse struct {
	Users []models.User `json:"users"`
	Count int           `json:"count"`
}

func NewProjectEndpoints(projects *ProjectService, identity *IdentityService) *ProjectEndpoints {
	return &ProjectEndpoints{
		projects: projects,
		identity: identity,
	}
}

func (e *ProjectEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Post("/", e.CreateProjectHandler)
		r.Get("/", e.GetProjectsHandler)
		r.Get("/self", e.GetOwnProjectsHandler)
		r.Post("/assign", e.AssignProjectsToSelfHandler)
		r.Get("/managers", e.GetManagersForProjectsHandler)
		r.Post("/users/{userId}/assign", e.AssignProjectsToUserHandler)
		r.Post("/managers/{managerId}/assign", e.AssignManagedProjectsHandler)
		r.Get("/{id}", e.GetProjectHandler)
	})

	r.Route("/managers", func(r chi.Router) {
		r.Post("/", e.CreateManagerHandler)
		r.Get("/", e.GetManagersHandler)
		r.Get("/{id}", e.GetManagerHandler)
		r.Delete("/{id}", e.DeleteManagerHandler)
	})
}

func (e *ProjectEndpoints) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}
	if !user.HasRole(models.RoleManager) && !user.HasRole(models.RoleAdmin) {
		http.Error(w, "Not authorized to create projects", http.StatusForbidden)
		return
	}

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	project, err := e.projects.CreateProject(r.Context(), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"project": project,
		"message": "Project created successfully",
	})

	slog.Info("Project created via API", "project_id", project.ID, "user_id", user.ID)
}

func (e *ProjectEndpoints) GetProjectsHandler(w http.ResponseWriter, r *http.Request) {
	projects, err := e.projects.GetProjects(r.Context())
	if err != nil {
		slog.Error("Failed to get projects", "error", err)
		http.Error(w, "Failed to get projects", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: projects, Count: len(projects)})
}

func (e *ProjectEndpoints) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if projectID == "" {
		http.Error(w, "Project ID is required", http.StatusBadRequest)
		return
	}

	project, err := e.projects.GetProject(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"project": project})
}

// GetOwnProjectsHandler returns the caller's membership set. Pure read: an
// unknown caller reference yields an empty list, never a new profile.
func (e *ProjectEndpoints) GetOwnProjectsHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	projects, err := e.identity.GetProjectsForUser(r.Context(), user.Username)
	if err != nil {
		slog.Error("Failed to get own projects", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get projects", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: projects, Count: len(projects)})
}

// AssignProjectsToSelfHandler lets the caller replace their own membership
// set, creating their profile on first contact.
func (e *ProjectEndpoints) AssignProjectsToSelfHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req AssignProjectsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := e.projects.AssignProjectsToCurrentUser(r.Context(), user.Username, req.ProjectIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    updated,
		"message": "Projects assigned successfully",
	})
}

func (e *ProjectEndpoints) AssignProjectsToUserHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}
	if !user.HasRole(models.RoleAdmin) {
		http.Error(w, "Not authorized to assign projects", http.StatusForbidden)
		return
	}

	userID := chi.URLParam(r, "userId")
	if userID == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	var req AssignProjectsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := e.projects.AssignProjectsToUser(r.Context(), userID, req.ProjectIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    updated,
		"message": "Projects assigned successfully",
	})

	slog.Info("Projects assigned via API", "target_user_id", userID, "admin_id", user.ID)
}

func (e *ProjectEndpoints) AssignManagedProjectsHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}
	if !user.HasRole(models.RoleAdmin) {
		http.Error(w, "Not authorized to assign managed projects", http.StatusForbidden)
		return
	}

	managerID := chi.URLParam(r, "managerId")
	if managerID == "" {
		http.Error(w, "Manager ID is required", http.StatusBadRequest)
		return
	}

	var req AssignProjectsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := e.projects.AssignManagedProjectsToManager(r.Context(), managerID, req.ProjectIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"manager": updated,
		"message": "Managed projects assigned successfully",
	})

	slog.Info("Managed projects assigned via API", "manager_id", managerID, "admin_id", user.ID)
}

func (e *ProjectEndpoints) GetManagersForProjectsHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("projectIds")
	var projectIDs []string
	if raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				projectIDs = append(projectIDs, id)
			}
		}
	}

	managers, err := e.projects.GetManagersForProjects(r.Context(), projectIDs)
	if err != nil {
		slog.Error("Failed to get managers for projects", "error", err)
		http.Error(w, "Failed to get managers", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{Users: managers, Count: len(managers)})
}

func (e *ProjectEndpoints) CreateManagerHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}
	if !user.HasRole(models.RoleAdmin) {
		http.Error(w, "Not authorized to create managers", http.StatusForbidden)
		return
	}

	var req CreateManagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "username, email and password are required", http.StatusBadRequest)
		return
	}

	manager, err := e.identity.CreateManager(r.Context(), req.Username, req.Email, req.Password, req.FirstName, req.LastName, req.Department)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"manager": manager,
		"message": "Manager created successfully",
	})

	slog.Info("Manager created via API", "manager_id", manager.ID, "admin_id", user.ID)
}

func (e *ProjectEndpoints) GetManagersHandler(w http.ResponseWriter, r *http.Request) {
	managers, err := e.identity.GetManagers(r.Context())
	if err != nil {
		slog.Error("Failed to get managers", "error", err)
		http.Error(w, "Failed to get managers", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{Users: managers, Count: len(managers)})
}

func (e *ProjectEndpoints) GetManagerHandler(w http.ResponseWriter, r *http.Request) {
	managerID := chi.URLParam(r, "id")
	if managerID == "" {
		http.Error(w, "Manager ID is required", http.StatusBadRequest)
		return
	}

	manager, err := e.identity.GetManagerByID(r.Context(), managerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"manager": manager})
}

func (e *ProjectEndpoints) DeleteManagerHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}
	if !user.HasRole(models.RoleAdmin) {
		http.Error(w, "Not authorized to delete managers", http.StatusForbidden)
		return
	}

	managerID := chi.URLParam(r, "id")
	if managerID == "" {
		http.Error(w, "Manager ID is required", http.StatusBadRequest)
		return
	}

	if err := e.identity.DeleteManager(r.Context(), managerID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Manager deleted successfully",
	})

	slog.Info("Manager deleted via API", "manager_id", managerID, "admin_id", user.ID)
}

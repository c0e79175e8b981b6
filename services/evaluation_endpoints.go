package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"perfreview/models"
)

type EvaluationEndpoints struct {
	evaluations *EvaluationService
}

type SubmitEvaluationRequest struct {
	EvaluationForm
	ProjectID *string `json:"projectId,omitempty"`
}

type CreateEvaluationRequest struct {
	EvaluationForm
	Employee   string  `json:"employee,omitempty"`
	ReviewerID *string `json:"reviewerId,omitempty"`
	ProjectID  *string `json:"projectId,omitempty"`
}

type ManagerScoreRequest struct {
	Competency string `json:"competency" validate:"required"`
	Score      int    `json:"score" validate:"required"`
}

type SubmitReviewRequest struct {
	ManagerRating   *int    `json:"managerRating,omitempty"`
	ManagerFeedback string  `json:"managerFeedback"`
	Recommendations string  `json:"recommendations"`
	Status          *string `json:"status,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type EvaluationListResponse struct {
	Evaluations []models.Evaluation `json:"evaluations"`
	Count       int                 `json:"count"`
}

type MonthlyCreateResponse struct {
	Created int    `json:"created"`
	Month   int    `json:"month"`
	Year    int    `json:"year"`
	Message string `json:"message"`
}

func NewEvaluationEndpoints(evaluations *EvaluationService) *EvaluationEndpoints {
	return &EvaluationEndpoints{
		evaluations: evaluations,
	}
}

func (e *EvaluationEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/evaluations", func(r chi.Router) {
		r.Get("/", e.GetEvaluationsHandler)
		r.Post("/", e.CreateEvaluationHandler)
		r.Post("/self", e.SubmitSelfEvaluationHandler)
		r.Get("/self", e.GetOwnEvaluationsHandler)
		r.Get("/self/check", e.CheckEvaluationHandler)
		r.Get("/assigned", e.GetAssignedEvaluationsHandler)
		r.Get("/status/{status}", e.GetEvaluationsByStatusHandler)
		r.Get("/department/{department}", e.GetDepartmentEvaluationsHandler)
		r.Get("/employee/{employeeId}", e.GetEmployeeEvaluationsHandler)
		r.Get("/employee/{employeeId}/averages", e.GetEmployeeAveragesHandler)
		r.Post("/monthly/create", e.CreateMonthlyEvaluationsHandler)
		r.Get("/{id}", e.GetEvaluationHandler)
		r.Put("/{id}/manager-score", e.ManagerScoreHandler)
		r.Put("/{id}/review", e.SubmitReviewHandler)
		r.Put("/{id}/status", e.UpdateStatusHandler)
		r.Delete("/{id}", e.DeleteEvaluationHandler)
	})
}

// writeServiceError maps the service error taxonomy to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// CreateEvaluationHandler is the full-form submission: the employee is named
// in the body (falling back to the denormalized email, then to the caller), so
// managers and admins can record evaluations on someone's behalf.
func (e *EvaluationEndpoints) CreateEvaluationHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CreateEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	employeeRef := req.Employee
	if employeeRef == "" {
		employeeRef = req.EmployeeEmail
	}
	if employeeRef == "" {
		employeeRef = user.Username
	}

	evaluation, err := e.evaluations.CreateEvaluation(r.Context(), req.EvaluationForm, employeeRef, req.ReviewerID, req.ProjectID)
	if err != nil {
		if errors.Is(err, ErrDuplicateEvaluation) {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"evaluation": evaluation,
				"message":    "An evaluation already exists for this period",
			})
			return
		}
		slog.Error("Failed to create evaluation", "error", err, "user_id", user.ID, "employee", employeeRef)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"evaluation": evaluation,
		"message":    "Evaluation created successfully",
	})

	slog.Info("Evaluation created", "evaluation_id", evaluation.ID, "employee_id", evaluation.EmployeeID, "created_by", user.ID)
}

func (e *EvaluationEndpoints) SubmitSelfEvaluationHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req SubmitEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	evaluation, err := e.evaluations.CreateEvaluation(r.Context(), req.EvaluationForm, user.Username, nil, req.ProjectID)
	if err != nil {
		if errors.Is(err, ErrDuplicateEvaluation) {
			// The existing record rides along with the conflict.
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"evaluation": evaluation,
				"message":    "An evaluation already exists for this period",
			})
			return
		}
		slog.Error("Failed to create evaluation", "error", err, "user_id", user.ID)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"evaluation": evaluation,
		"message":    "Evaluation submitted successfully",
	})

	slog.Info("Evaluation submitted", "evaluation_id", evaluation.ID, "employee_id", evaluation.EmployeeID)
}

func (e *EvaluationEndpoints) GetOwnEvaluationsHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	evaluations := e.evaluations.GetEmployeeEvaluations(r.Context(), user.ID)
	writeJSON(w, http.StatusOK, EvaluationListResponse{Evaluations: evaluations, Count: len(evaluations)})
}

func (e *EvaluationEndpoints) CheckEvaluationHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	projectID := r.URL.Query().Get("projectId")
	year, errYear := strconv.Atoi(r.URL.Query().Get("year"))
	quarter, errQuarter := strconv.Atoi(r.URL.Query().Get("quarter"))
	if projectID == "" || errYear != nil || errQuarter != nil {
		http.Error(w, "projectId, year and quarter are required", http.StatusBadRequest)
		return
	}

	existing, err := e.evaluations.CheckForPeriod(r.Context(), user.Username, projectID, year, quarter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"exists":     existing != nil,
		"evaluation": existing,
	})
}

// GetEvaluationsHandler scopes the listing to the caller's widest role:
// admins see everything, managers see their projects' evaluations and
// everyone else sees their own.
func (e *EvaluationEndpoints) GetEvaluationsHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var evaluations []models.Evaluation
	switch {
	case user.HasRole(models.RoleAdmin):
		all, err := e.evaluations.GetAllEvaluations(r.Context())
		if err != nil {
			slog.Error("Failed to get evaluations", "error", err, "user_id", user.ID)
			http.Error(w, "Failed to get evaluations", http.StatusInternalServerError)
			return
		}
		evaluations = all
	case user.HasRole(models.RoleManager):
		evaluations = e.evaluations.GetManagerVisibleEvaluations(r.Context(), user.ID)
	default:
		evaluations = e.evaluations.GetEmployeeEvaluations(r.Context(), user.ID)
	}

	writeJSON(w, http.StatusOK, EvaluationListResponse{Evaluations: evaluations, Count: len(evaluations)})
	slog.Info("Evaluations retrieved", "user_id", user.ID, "count", len(evaluations))
}

func (e *EvaluationEndpoints) GetEvaluationHandler(w http.ResponseWriter, r *http.Request) {
	evaluationID := chi.URLParam(r, "id")
	if evaluationID == "" {
		http.Error(w, "Evaluation ID is required", http.StatusBadRequest)
		return
	}

	evaluation, err := e.evaluations.getEvaluation(r.Context(), evaluationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"evaluation": evaluation})
}

func (e *EvaluationEndpoints) GetAssignedEvaluationsHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	evaluations, err := e.evaluations.GetAssignedEvaluations(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get assigned evaluations", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get assigned evaluations", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, EvaluationListResponse{Evaluations: evaluations, Count: len(evaluations)})
}

func (e *EvaluationEndpoints) GetEvaluationsByStatusHandler(w http.ResponseWriter, r *http.Request) {
	status := models.EvaluationStatus(strings.ToUpper(chi.URLParam(r, "status")))

	evaluations, err := e.evaluations.GetEvaluationsByStatus(r.Context(), status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, EvaluationListResponse{Evaluations: evaluations, Count: len(evaluations)})
}

func (e *EvaluationEndpoints) GetDepartmentEvaluationsHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}
	if !user.HasRole(models.RoleManager) && !user.HasRole(models.RoleAdmin) {
		http.Error(w, "Not authorized to view department evaluations", http.StatusForbidden)
		return
	}

	department := chi.URLParam(r, "department")
	if department == "" {
		http.Error(w, "Department is required", http.StatusBadRequest)
		return
	}

	evaluations, err := e.evaluations.GetDepartmentEvaluations(r.Context(), department)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, EvaluationListResponse{Evaluations: evaluations, Count: len(evaluations)})
}

func (e *EvaluationEndpoints) GetEmployeeEvaluationsHandler(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")
	if employeeID == "" {
		http.Error(w, "Employee ID is required", http.StatusBadRequest)
		return
	}

	evaluations := e.evaluations.GetEmployeeEvaluations(r.Context(), employeeID)
	writeJSON(w, http.StatusOK, EvaluationListResponse{Evaluations: evaluations, Count: len(evaluations)})
}

func (e *EvaluationEndpoints) GetEmployeeAveragesHandler(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")
	if employeeID == "" {
		http.Error(w, "Employee ID is required", http.StatusBadRequest)
		return
	}

	averages := e.evaluations.GetEmployeeAverageRatings(r.Context(), employeeID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"averages": averages})
}

func (e *EvaluationEndpoints) CreateMonthlyEvaluationsHandler(w http.ResponseWriter, r *http.Request) {
	month, errMonth := strconv.Atoi(r.URL.Query().Get("month"))
	year, errYear := strconv.Atoi(r.URL.Query().Get("year"))
	if errMonth != nil || errYear != nil {
		http.Error(w, "month and year query parameters are required", http.StatusBadRequest)
		return
	}

	created, err := e.evaluations.CreateMonthlyEvaluations(r.Context(), month, year)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MonthlyCreateResponse{
		Created: created,
		Month:   month,
		Year:    year,
		Message: "Monthly evaluations created",
	})
}

func (e *EvaluationEndpoints) ManagerScoreHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	evaluationID := chi.URLParam(r, "id")
	if evaluationID == "" {
		http.Error(w, "Evaluation ID is required", http.StatusBadRequest)
		return
	}

	var req ManagerScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Competency == "" {
		http.Error(w, "Competency is required", http.StatusBadRequest)
		return
	}

	var evaluation *models.Evaluation
	var err error
	// "overall" is a marker, not a competency name.
	if strings.EqualFold(req.Competency, "overall") {
		evaluation, err = e.evaluations.UpdateManagerOverallRating(r.Context(), evaluationID, user.ID, req.Score)
	} else {
		evaluation, err = e.evaluations.UpdateManagerCompetencyScore(r.Context(), evaluationID, user.ID, req.Competency, req.Score)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"evaluation": evaluation,
		"message":    "Score recorded",
	})
}

func (e *EvaluationEndpoints) SubmitReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	evaluationID := chi.URLParam(r, "id")
	if evaluationID == "" {
		http.Error(w, "Evaluation ID is required", http.StatusBadRequest)
		return
	}

	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var status *models.EvaluationStatus
	if req.Status != nil {
		s := models.EvaluationStatus(strings.ToUpper(*req.Status))
		status = &s
	}

	evaluation, err := e.evaluations.SubmitReview(r.Context(), evaluationID, user.ID, req.ManagerRating,
		req.ManagerFeedback, req.Recommendations, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"evaluation": evaluation,
		"message":    "Review submitted successfully",
	})

	slog.Info("Review submitted", "evaluation_id", evaluationID, "reviewer_id", user.ID)
}

func (e *EvaluationEndpoints) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	evaluationID := chi.URLParam(r, "id")
	if evaluationID == "" {
		http.Error(w, "Evaluation ID is required", http.StatusBadRequest)
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	evaluation, err := e.evaluations.UpdateEvaluationStatus(r.Context(), evaluationID,
		models.EvaluationStatus(strings.ToUpper(req.Status)))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"evaluation": evaluation,
		"message":    "Status updated",
	})
}

func (e *EvaluationEndpoints) DeleteEvaluationHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	evaluationID := chi.URLParam(r, "id")
	if evaluationID == "" {
		http.Error(w, "Evaluation ID is required", http.StatusBadRequest)
		return
	}

	if err := e.evaluations.DeleteEvaluationAuthorized(r.Context(), evaluationID, user.ID, user.HasRole(models.RoleAdmin)); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Evaluation deleted successfully",
	})

	slog.Info("Evaluation deleted via API", "evaluation_id", evaluationID, "user_id", user.ID)
}

package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfreview/models"
)

type CriteriaEndpoints struct {
	criteria *CriteriaService
}

type CriterionRequest struct {
	Category             string `json:"category" validate:"required"`
	Description          string `json:"description"`
	OrderIndex           int    `json:"orderIndex"`
	EffectiveFromYear    *int   `json:"effectiveFromYear,omitempty"`
	EffectiveFromQuarter *int   `json:"effectiveFromQuarter,omitempty"`
	IsActive             *bool  `json:"isActive,omitempty"`
}

type CriteriaListResponse struct {
	Criteria []models.Keq `json:"criteria"`
	Count    int          `json:"count"`
}

func NewCriteriaEndpoints(criteria *CriteriaService) *CriteriaEndpoints {
	return &CriteriaEndpoints{criteria: criteria}
}

// All criteria routes are admin-only.
func (e *CriteriaEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/keqs", func(r chi.Router) {
		r.Get("/", e.ListCriteriaHandler)
		r.Post("/", e.CreateCriterionHandler)
		r.Put("/{id}", e.UpdateCriterionHandler)
		r.Delete("/{id}", e.DeleteCriterionHandler)
	})
}

func requireAdmin(w http.ResponseWriter, r *http.Request) *models.User {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return nil
	}
	if !user.HasRole(models.RoleAdmin) {
		http.Error(w, "Administrator role required", http.StatusForbidden)
		return nil
	}
	return user
}

func (r CriterionRequest) toModel() models.Keq {
	keq := models.Keq{
		Category:             r.Category,
		Description:          r.Description,
		OrderIndex:           r.OrderIndex,
		EffectiveFromYear:    r.EffectiveFromYear,
		EffectiveFromQuarter: r.EffectiveFromQuarter,
		IsActive:             true,
	}
	if r.IsActive != nil {
		keq.IsActive = *r.IsActive
	}
	return keq
}

func (e *CriteriaEndpoints) ListCriteriaHandler(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	criteria, err := e.criteria.ListCriteria(r.Context())
	if err != nil {
		slog.Error("Failed to list key evaluation questions", "error", err)
		http.Error(w, "Failed to list criteria", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, CriteriaListResponse{Criteria: criteria, Count: len(criteria)})
}

func (e *CriteriaEndpoints) CreateCriterionHandler(w http.ResponseWriter, r *http.Request) {
	user := requireAdmin(w, r)
	if user == nil {
		return
	}

	var req CriterionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	criterion, err := e.criteria.CreateCriterion(r.Context(), req.toModel())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"criterion": criterion,
		"message":   "Criterion created successfully",
	})

	slog.Info("Criterion created via API", "keq_id", criterion.ID, "user_id", user.ID)
}

func (e *CriteriaEndpoints) UpdateCriterionHandler(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Criterion ID is required", http.StatusBadRequest)
		return
	}

	var req CriterionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	criterion, err := e.criteria.UpdateCriterion(r.Context(), id, req.toModel())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"criterion": criterion,
		"message":   "Criterion updated",
	})
}

func (e *CriteriaEndpoints) DeleteCriterionHandler(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Criterion ID is required", http.StatusBadRequest)
		return
	}

	if err := e.criteria.DeleteCriterion(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      id,
	})
}

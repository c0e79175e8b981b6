package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfreview/models"
)

type PeerReviewEndpoints struct {
	reviews *PeerReviewService
}

type CreatePeerReviewRequest struct {
	PeerReviewForm
	EvaluationID string `json:"evaluationId" validate:"required"`
}

type PeerReviewListResponse struct {
	Reviews []models.PeerReview `json:"reviews"`
	Count   int                 `json:"count"`
}

func NewPeerReviewEndpoints(reviews *PeerReviewService) *PeerReviewEndpoints {
	return &PeerReviewEndpoints{reviews: reviews}
}

func (e *PeerReviewEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/peer-reviews", func(r chi.Router) {
		r.Post("/", e.CreatePeerReviewHandler)
		r.Get("/evaluation/{evaluationId}", e.GetReviewsForEvaluationHandler)
		r.Get("/evaluation/{evaluationId}/summary", e.SummaryHandler)
		r.Get("/evaluation/{evaluationId}/reviewer/{reviewerId}", e.FindReviewHandler)
		r.Get("/reviewer/{reviewerId}", e.GetReviewsByReviewerHandler)
		r.Put("/{id}", e.UpdatePeerReviewHandler)
		r.Delete("/{id}", e.DeletePeerReviewHandler)
	})
}

// CreatePeerReviewHandler records the caller's feedback on an evaluation.
// The reviewer identity always comes from the authenticated caller.
func (e *PeerReviewEndpoints) CreatePeerReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CreatePeerReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	review := &models.PeerReview{
		EvaluationID:        req.EvaluationID,
		ReviewerID:          user.ID,
		ReviewerName:        user.FullName(),
		ReviewerEmail:       user.Email,
		CollaborationRating: req.CollaborationRating,
		CommunicationRating: req.CommunicationRating,
		TechnicalRating:     req.TechnicalRating,
		LeadershipRating:    req.LeadershipRating,
	}
	if req.Strengths != nil {
		review.Strengths = *req.Strengths
	}
	if req.Weaknesses != nil {
		review.Weaknesses = *req.Weaknesses
	}
	if req.Suggestions != nil {
		review.Suggestions = *req.Suggestions
	}

	created, err := e.reviews.CreateReview(r.Context(), review)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"review":  created,
		"message": "Peer review submitted",
	})

	slog.Info("Peer review submitted via API", "peer_review_id", created.ID, "reviewer_id", user.ID)
}

func (e *PeerReviewEndpoints) GetReviewsForEvaluationHandler(w http.ResponseWriter, r *http.Request) {
	evaluationID := chi.URLParam(r, "evaluationId")
	if evaluationID == "" {
		http.Error(w, "Evaluation ID is required", http.StatusBadRequest)
		return
	}

	reviews, err := e.reviews.GetReviewsForEvaluation(r.Context(), evaluationID)
	if err != nil {
		slog.Error("Failed to get peer reviews", "error", err, "evaluation_id", evaluationID)
		http.Error(w, "Failed to get peer reviews", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, PeerReviewListResponse{Reviews: reviews, Count: len(reviews)})
}

func (e *PeerReviewEndpoints) GetReviewsByReviewerHandler(w http.ResponseWriter, r *http.Request) {
	reviewerID := chi.URLParam(r, "reviewerId")
	if reviewerID == "" {
		http.Error(w, "Reviewer ID is required", http.StatusBadRequest)
		return
	}

	reviews, err := e.reviews.GetReviewsByReviewer(r.Context(), reviewerID)
	if err != nil {
		slog.Error("Failed to get peer reviews by reviewer", "error", err, "reviewer_id", reviewerID)
		http.Error(w, "Failed to get peer reviews", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, PeerReviewListResponse{Reviews: reviews, Count: len(reviews)})
}

func (e *PeerReviewEndpoints) FindReviewHandler(w http.ResponseWriter, r *http.Request) {
	evaluationID := chi.URLParam(r, "evaluationId")
	reviewerID := chi.URLParam(r, "reviewerId")
	if evaluationID == "" || reviewerID == "" {
		http.Error(w, "Evaluation ID and reviewer ID are required", http.StatusBadRequest)
		return
	}

	review, err := e.reviews.FindReview(r.Context(), evaluationID, reviewerID)
	if err != nil {
		slog.Error("Failed to find peer review", "error", err, "evaluation_id", evaluationID, "reviewer_id", reviewerID)
		http.Error(w, "Failed to find peer review", http.StatusInternalServerError)
		return
	}
	if review == nil {
		http.Error(w, "Peer review not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"review": review})
}

func (e *PeerReviewEndpoints) UpdatePeerReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Peer review ID is required", http.StatusBadRequest)
		return
	}

	var form PeerReviewForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	review, err := e.reviews.UpdateReview(r.Context(), id, form)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"review":  review,
		"message": "Peer review updated",
	})
}

func (e *PeerReviewEndpoints) DeletePeerReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}
	if !user.HasRole(models.RoleManager) && !user.HasRole(models.RoleAdmin) {
		http.Error(w, "Not authorized to delete peer reviews", http.StatusForbidden)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Peer review ID is required", http.StatusBadRequest)
		return
	}

	if err := e.reviews.DeleteReview(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Peer review deleted",
	})

	slog.Info("Peer review deleted via API", "peer_review_id", id, "user_id", user.ID)
}

func (e *PeerReviewEndpoints) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	evaluationID := chi.URLParam(r, "evaluationId")
	if evaluationID == "" {
		http.Error(w, "Evaluation ID is required", http.StatusBadRequest)
		return
	}

	summary, err := e.reviews.SummarizeReviews(r.Context(), evaluationID)
	if err != nil {
		slog.Error("Failed to summarize peer reviews", "error", err, "evaluation_id", evaluationID)
		http.Error(w, "Failed to summarize peer reviews", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})
}

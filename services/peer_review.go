package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"perfreview/models"
)

// PeerReviewForm is the mutable portion of a peer review. Pointer fields
// distinguish "not sent" from explicit values so updates can be partial.
type PeerReviewForm struct {
	Strengths           *string `json:"strengths,omitempty"`
	Weaknesses          *string `json:"weaknesses,omitempty"`
	Suggestions         *string `json:"suggestions,omitempty"`
	CollaborationRating *int    `json:"collaborationRating,omitempty"`
	CommunicationRating *int    `json:"communicationRating,omitempty"`
	TechnicalRating     *int    `json:"technicalRating,omitempty"`
	LeadershipRating    *int    `json:"leadershipRating,omitempty"`
}

// PeerReviewService manages colleague feedback attached to evaluations. The
// overall rating is always derived from the four dimension ratings; a review
// missing any dimension has no overall.
type PeerReviewService struct {
	reviews     PeerReviewStore
	evaluations EvaluationStore
}

func NewPeerReviewService(reviews PeerReviewStore, evaluations EvaluationStore) *PeerReviewService {
	return &PeerReviewService{reviews: reviews, evaluations: evaluations}
}

func (s *PeerReviewService) GetReviewsForEvaluation(ctx context.Context, evaluationID string) ([]models.PeerReview, error) {
	return s.reviews.GetPeerReviewsByEvaluation(ctx, evaluationID)
}

func (s *PeerReviewService) GetReviewsByReviewer(ctx context.Context, reviewerID string) ([]models.PeerReview, error) {
	return s.reviews.GetPeerReviewsByReviewer(ctx, reviewerID)
}

// FindReview returns a reviewer's review of an evaluation, nil when absent.
func (s *PeerReviewService) FindReview(ctx context.Context, evaluationID, reviewerID string) (*models.PeerReview, error) {
	return s.reviews.FindPeerReview(ctx, evaluationID, reviewerID)
}

// CreateReview attaches a peer review to an existing evaluation.
func (s *PeerReviewService) CreateReview(ctx context.Context, review *models.PeerReview) (*models.PeerReview, error) {
	if review.EvaluationID == "" || review.ReviewerID == "" {
		return nil, fmt.Errorf("%w: evaluation and reviewer are required", ErrInvalidArgument)
	}
	if err := validateDimensionRatings(review); err != nil {
		return nil, err
	}

	evaluation, err := s.evaluations.GetEvaluationByID(ctx, review.EvaluationID)
	if err != nil {
		return nil, err
	}
	if evaluation == nil {
		return nil, fmt.Errorf("%w: evaluation %s", ErrNotFound, review.EvaluationID)
	}

	review.OverallRating = deriveDimensionOverall(review)
	if err := s.reviews.CreatePeerReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// UpdateReview applies the non-nil form fields to an existing review and
// re-derives the overall rating.
func (s *PeerReviewService) UpdateReview(ctx context.Context, id string, form PeerReviewForm) (*models.PeerReview, error) {
	review, err := s.reviews.GetPeerReviewByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, fmt.Errorf("%w: peer review %s", ErrNotFound, id)
	}

	if form.Strengths != nil {
		review.Strengths = *form.Strengths
	}
	if form.Weaknesses != nil {
		review.Weaknesses = *form.Weaknesses
	}
	if form.Suggestions != nil {
		review.Suggestions = *form.Suggestions
	}
	if form.CollaborationRating != nil {
		review.CollaborationRating = form.CollaborationRating
	}
	if form.CommunicationRating != nil {
		review.CommunicationRating = form.CommunicationRating
	}
	if form.TechnicalRating != nil {
		review.TechnicalRating = form.TechnicalRating
	}
	if form.LeadershipRating != nil {
		review.LeadershipRating = form.LeadershipRating
	}

	if err := validateDimensionRatings(review); err != nil {
		return nil, err
	}
	review.OverallRating = deriveDimensionOverall(review)

	if err := s.reviews.SavePeerReview(ctx, review); err != nil {
		return nil, err
	}
	slog.Info("Peer review updated", "peer_review_id", id, "evaluation_id", review.EvaluationID)
	return review, nil
}

func (s *PeerReviewService) DeleteReview(ctx context.Context, id string) error {
	review, err := s.reviews.GetPeerReviewByID(ctx, id)
	if err != nil {
		return err
	}
	if review == nil {
		return fmt.Errorf("%w: peer review %s", ErrNotFound, id)
	}
	return s.reviews.DeletePeerReview(ctx, id)
}

// SummarizeReviews produces a plain-text digest of an evaluation's peer
// reviews: the review count and the average of each dimension.
func (s *PeerReviewService) SummarizeReviews(ctx context.Context, evaluationID string) (string, error) {
	reviews, err := s.reviews.GetPeerReviewsByEvaluation(ctx, evaluationID)
	if err != nil {
		return "", err
	}
	if len(reviews) == 0 {
		return "No peer reviews available for this evaluation.", nil
	}

	summary := fmt.Sprintf("Peer Review Summary (%d reviews):\n\nAverage Ratings:\n", len(reviews))
	summary += fmt.Sprintf("- Collaboration: %.1f/5\n", dimensionAverage(reviews, func(r *models.PeerReview) *int { return r.CollaborationRating }))
	summary += fmt.Sprintf("- Communication: %.1f/5\n", dimensionAverage(reviews, func(r *models.PeerReview) *int { return r.CommunicationRating }))
	summary += fmt.Sprintf("- Technical Skills: %.1f/5\n", dimensionAverage(reviews, func(r *models.PeerReview) *int { return r.TechnicalRating }))
	summary += fmt.Sprintf("- Leadership: %.1f/5\n", dimensionAverage(reviews, func(r *models.PeerReview) *int { return r.LeadershipRating }))
	return summary, nil
}

func validateDimensionRatings(review *models.PeerReview) error {
	for _, rating := range []*int{review.CollaborationRating, review.CommunicationRating, review.TechnicalRating, review.LeadershipRating} {
		if rating != nil && (*rating < 1 || *rating > 5) {
			return fmt.Errorf("%w: ratings must be between 1 and 5", ErrInvalidArgument)
		}
	}
	return nil
}

// deriveDimensionOverall is the rounded mean of the four dimension ratings,
// nil unless all four are present. Halves round up.
func deriveDimensionOverall(review *models.PeerReview) *int {
	if review.CollaborationRating == nil || review.CommunicationRating == nil ||
		review.TechnicalRating == nil || review.LeadershipRating == nil {
		return review.OverallRating
	}
	sum := *review.CollaborationRating + *review.CommunicationRating + *review.TechnicalRating + *review.LeadershipRating
	overall := int(math.Round(float64(sum) / 4.0))
	return &overall
}

func dimensionAverage(reviews []models.PeerReview, pick func(*models.PeerReview) *int) float64 {
	sum, count := 0, 0
	for i := range reviews {
		if v := pick(&reviews[i]); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

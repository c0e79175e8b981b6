package repository

import (
	"context"
	"fmt"
	"log/slog"

	"perfreview/models"

	"gorm.io/gorm"
)

// Peer review operations.

func (r *GORMRepository) CreatePeerReview(ctx context.Context, review *models.PeerReview) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		slog.Error("Failed to create peer review", "error", err, "evaluation_id", review.EvaluationID)
		return fmt.Errorf("failed to create peer review: %w", err)
	}
	slog.Info("Peer review created", "peer_review_id", review.ID, "evaluation_id", review.EvaluationID, "reviewer_id", review.ReviewerID)
	return nil
}

func (r *GORMRepository) GetPeerReviewByID(ctx context.Context, id string) (*models.PeerReview, error) {
	var review models.PeerReview
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&review).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get peer review", "error", err, "peer_review_id", id)
		return nil, err
	}
	return &review, nil
}

func (r *GORMRepository) GetPeerReviewsByEvaluation(ctx context.Context, evaluationID string) ([]models.PeerReview, error) {
	var reviews []models.PeerReview
	err := r.db.WithContext(ctx).
		Where("evaluation_id = ?", evaluationID).
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		slog.Error("Failed to get peer reviews by evaluation", "error", err, "evaluation_id", evaluationID)
		return nil, err
	}
	return reviews, nil
}

func (r *GORMRepository) GetPeerReviewsByReviewer(ctx context.Context, reviewerID string) ([]models.PeerReview, error) {
	var reviews []models.PeerReview
	err := r.db.WithContext(ctx).
		Where("reviewer_id = ?", reviewerID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		slog.Error("Failed to get peer reviews by reviewer", "error", err, "reviewer_id", reviewerID)
		return nil, err
	}
	return reviews, nil
}

// FindPeerReview returns a reviewer's review of an evaluation, or nil when
// they have not reviewed it yet.
func (r *GORMRepository) FindPeerReview(ctx context.Context, evaluationID, reviewerID string) (*models.PeerReview, error) {
	var review models.PeerReview
	err := r.db.WithContext(ctx).
		Where("evaluation_id = ? AND reviewer_id = ?", evaluationID, reviewerID).
		First(&review).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to find peer review", "error", err, "evaluation_id", evaluationID, "reviewer_id", reviewerID)
		return nil, err
	}
	return &review, nil
}

func (r *GORMRepository) SavePeerReview(ctx context.Context, review *models.PeerReview) error {
	if err := r.db.WithContext(ctx).Save(review).Error; err != nil {
		slog.Error("Failed to save peer review", "error", err, "peer_review_id", review.ID)
		return fmt.Errorf("failed to save peer review: %w", err)
	}
	return nil
}

func (r *GORMRepository) DeletePeerReview(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PeerReview{}).Error; err != nil {
		slog.Error("Failed to delete peer review", "error", err, "peer_review_id", id)
		return err
	}
	slog.Info("Peer review deleted", "peer_review_id", id)
	return nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"perfreview/models"
)

func newPeerReviewFixture(t *testing.T) (*fakeStore, *PeerReviewService, *models.Evaluation) {
	t.Helper()
	store := newFakeStore()
	service := NewPeerReviewService(store, store)

	employee := store.addUser(models.User{Username: "jdoe", Email: "jdoe@example.com"})
	evaluation := &models.Evaluation{EmployeeID: employee.ID, Status: models.StatusSubmitted}
	store.CreateEvaluation(context.Background(), evaluation)
	return store, service, evaluation
}

func TestCreatePeerReviewDerivesOverall(t *testing.T) {
	store, service, evaluation := newPeerReviewFixture(t)
	reviewer := store.addUser(models.User{Username: "bsmith", Email: "bsmith@example.com"})

	review, err := service.CreateReview(context.Background(), &models.PeerReview{
		EvaluationID:        evaluation.ID,
		ReviewerID:          reviewer.ID,
		ReviewerName:        "Bob Smith",
		ReviewerEmail:       reviewer.Email,
		CollaborationRating: intPtr(4),
		CommunicationRating: intPtr(5),
		TechnicalRating:     intPtr(4),
		LeadershipRating:    intPtr(5),
	})
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}
	// Mean 4.5 rounds up.
	if review.OverallRating == nil || *review.OverallRating != 5 {
		t.Errorf("overallRating = %v, expected 5", review.OverallRating)
	}
}

func TestCreatePeerReviewPartialRatingsHaveNoOverall(t *testing.T) {
	store, service, evaluation := newPeerReviewFixture(t)
	reviewer := store.addUser(models.User{Username: "bsmith", Email: "bsmith@example.com"})

	review, err := service.CreateReview(context.Background(), &models.PeerReview{
		EvaluationID:        evaluation.ID,
		ReviewerID:          reviewer.ID,
		ReviewerName:        "Bob Smith",
		ReviewerEmail:       reviewer.Email,
		CollaborationRating: intPtr(4),
	})
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}
	if review.OverallRating != nil {
		t.Errorf("overallRating = %v, expected nil with missing dimensions", review.OverallRating)
	}
}

func TestCreatePeerReviewValidation(t *testing.T) {
	store, service, evaluation := newPeerReviewFixture(t)
	reviewer := store.addUser(models.User{Username: "bsmith", Email: "bsmith@example.com"})

	if _, err := service.CreateReview(context.Background(), &models.PeerReview{ReviewerID: reviewer.ID}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("missing evaluation error = %v, expected ErrInvalidArgument", err)
	}

	if _, err := service.CreateReview(context.Background(), &models.PeerReview{
		EvaluationID: "missing",
		ReviewerID:   reviewer.ID,
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown evaluation error = %v, expected ErrNotFound", err)
	}

	if _, err := service.CreateReview(context.Background(), &models.PeerReview{
		EvaluationID:        evaluation.ID,
		ReviewerID:          reviewer.ID,
		CollaborationRating: intPtr(6),
	}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("out-of-range rating error = %v, expected ErrInvalidArgument", err)
	}
}

func TestUpdatePeerReviewRecomputesOverall(t *testing.T) {
	store, service, evaluation := newPeerReviewFixture(t)
	reviewer := store.addUser(models.User{Username: "bsmith", Email: "bsmith@example.com"})

	review, err := service.CreateReview(context.Background(), &models.PeerReview{
		EvaluationID:        evaluation.ID,
		ReviewerID:          reviewer.ID,
		CollaborationRating: intPtr(3),
		CommunicationRating: intPtr(3),
		TechnicalRating:     intPtr(3),
		LeadershipRating:    intPtr(3),
	})
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}

	strengths := "Great debugging instincts"
	updated, err := service.UpdateReview(context.Background(), review.ID, PeerReviewForm{
		Strengths:        &strengths,
		LeadershipRating: intPtr(5),
	})
	if err != nil {
		t.Fatalf("UpdateReview failed: %v", err)
	}
	if updated.Strengths != strengths {
		t.Errorf("strengths = %q, expected %q", updated.Strengths, strengths)
	}
	// Untouched dimensions survive; mean (3+3+3+5)/4 = 3.5 rounds up.
	if updated.CollaborationRating == nil || *updated.CollaborationRating != 3 {
		t.Errorf("collaborationRating = %v, expected untouched 3", updated.CollaborationRating)
	}
	if updated.OverallRating == nil || *updated.OverallRating != 4 {
		t.Errorf("overallRating = %v, expected 4", updated.OverallRating)
	}

	if _, err := service.UpdateReview(context.Background(), "missing", PeerReviewForm{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing review error = %v, expected ErrNotFound", err)
	}
}

func TestDeletePeerReview(t *testing.T) {
	store, service, evaluation := newPeerReviewFixture(t)
	reviewer := store.addUser(models.User{Username: "bsmith", Email: "bsmith@example.com"})

	review, err := service.CreateReview(context.Background(), &models.PeerReview{
		EvaluationID: evaluation.ID,
		ReviewerID:   reviewer.ID,
	})
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}

	if err := service.DeleteReview(context.Background(), review.ID); err != nil {
		t.Fatalf("DeleteReview failed: %v", err)
	}
	if err := service.DeleteReview(context.Background(), review.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete error = %v, expected ErrNotFound", err)
	}
}

func TestSummarizeReviews(t *testing.T) {
	store, service, evaluation := newPeerReviewFixture(t)
	first := store.addUser(models.User{Username: "bsmith", Email: "bsmith@example.com"})
	second := store.addUser(models.User{Username: "mpatel", Email: "mpatel@example.com"})

	empty, err := service.SummarizeReviews(context.Background(), evaluation.ID)
	if err != nil {
		t.Fatalf("SummarizeReviews failed: %v", err)
	}
	if empty != "No peer reviews available for this evaluation." {
		t.Errorf("empty summary = %q", empty)
	}

	for _, reviewer := range []*models.User{first, second} {
		if _, err := service.CreateReview(context.Background(), &models.PeerReview{
			EvaluationID:        evaluation.ID,
			ReviewerID:          reviewer.ID,
			CollaborationRating: intPtr(4),
			CommunicationRating: intPtr(3),
			TechnicalRating:     intPtr(5),
			LeadershipRating:    intPtr(2),
		}); err != nil {
			t.Fatalf("CreateReview failed: %v", err)
		}
	}

	summary, err := service.SummarizeReviews(context.Background(), evaluation.ID)
	if err != nil {
		t.Fatalf("SummarizeReviews failed: %v", err)
	}
	if !strings.Contains(summary, "2 reviews") {
		t.Errorf("summary missing review count: %q", summary)
	}
	if !strings.Contains(summary, "Collaboration: 4.0/5") || !strings.Contains(summary, "Leadership: 2.0/5") {
		t.Errorf("summary missing dimension averages: %q", summary)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"perfreview/models"
)

// CriteriaService manages the key evaluation questions administrators curate.
// There is no automatic bootstrapping; every question is admin-created.
type CriteriaService struct {
	keqs KeqStore
}

func NewCriteriaService(keqs KeqStore) *CriteriaService {
	return &CriteriaService{keqs: keqs}
}

func (s *CriteriaService) ListCriteria(ctx context.Context) ([]models.Keq, error) {
	return s.keqs.GetKeqs(ctx)
}

// CreateCriterion persists a new question. Category is required; the order
// index defaults to 1 when unset.
func (s *CriteriaService) CreateCriterion(ctx context.Context, keq models.Keq) (*models.Keq, error) {
	if err := validateCriterion(&keq); err != nil {
		return nil, err
	}
	if err := s.keqs.CreateKeq(ctx, &keq); err != nil {
		return nil, err
	}
	return &keq, nil
}

// UpdateCriterion replaces the mutable fields of an existing question.
func (s *CriteriaService) UpdateCriterion(ctx context.Context, id string, payload models.Keq) (*models.Keq, error) {
	existing, err := s.keqs.GetKeqByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: key evaluation question %s", ErrNotFound, id)
	}

	if err := validateCriterion(&payload); err != nil {
		return nil, err
	}

	existing.Category = payload.Category
	existing.Description = payload.Description
	existing.OrderIndex = payload.OrderIndex
	existing.EffectiveFromYear = payload.EffectiveFromYear
	existing.EffectiveFromQuarter = payload.EffectiveFromQuarter
	existing.IsActive = payload.IsActive

	if err := s.keqs.SaveKeq(ctx, existing); err != nil {
		return nil, err
	}
	slog.Info("Key evaluation question updated", "keq_id", id, "category", existing.Category)
	return existing, nil
}

func (s *CriteriaService) DeleteCriterion(ctx context.Context, id string) error {
	existing, err := s.keqs.GetKeqByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: key evaluation question %s", ErrNotFound, id)
	}
	return s.keqs.DeleteKeq(ctx, id)
}

func validateCriterion(keq *models.Keq) error {
	keq.Category = strings.TrimSpace(keq.Category)
	if keq.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidArgument)
	}
	if keq.OrderIndex <= 0 {
		keq.OrderIndex = 1
	}
	if keq.EffectiveFromQuarter != nil {
		if q := *keq.EffectiveFromQuarter; q < 1 || q > 4 {
			return fmt.Errorf("%w: quarter must be between 1 and 4", ErrInvalidArgument)
		}
	}
	return nil
}

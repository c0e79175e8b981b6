package repository

import (
	"context"
	"fmt"
	"log/slog"

	"perfreview/models"

	"gorm.io/gorm"
)

// Key evaluation question operations.

func (r *GORMRepository) CreateKeq(ctx context.Context, keq *models.Keq) error {
	if err := r.db.WithContext(ctx).Create(keq).Error; err != nil {
		slog.Error("Failed to create key evaluation question", "error", err, "category", keq.Category)
		return fmt.Errorf("failed to create key evaluation question: %w", err)
	}
	slog.Info("Key evaluation question created", "keq_id", keq.ID, "category", keq.Category)
	return nil
}

func (r *GORMRepository) GetKeqs(ctx context.Context) ([]models.Keq, error) {
	var keqs []models.Keq
	err := r.db.WithContext(ctx).
		Order("order_index ASC, created_at ASC").
		Find(&keqs).Error
	if err != nil {
		slog.Error("Failed to get key evaluation questions", "error", err)
		return nil, err
	}
	return keqs, nil
}

func (r *GORMRepository) GetKeqByID(ctx context.Context, id string) (*models.Keq, error) {
	var keq models.Keq
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&keq).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get key evaluation question", "error", err, "keq_id", id)
		return nil, err
	}
	return &keq, nil
}

func (r *GORMRepository) SaveKeq(ctx context.Context, keq *models.Keq) error {
	if err := r.db.WithContext(ctx).Save(keq).Error; err != nil {
		slog.Error("Failed to save key evaluation question", "error", err, "keq_id", keq.ID)
		return fmt.Errorf("failed to save key evaluation question: %w", err)
	}
	return nil
}

func (r *GORMRepository) DeleteKeq(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Keq{}).Error; err != nil {
		slog.Error("Failed to delete key evaluation question", "error", err, "keq_id", id)
		return err
	}
	slog.Info("Key evaluation question deleted", "keq_id", id)
	return nil
}

package repository

import (
	"context"
	"fmt"
	"log/slog"

	"perfreview/models"

	"gorm.io/gorm"
)

// Evaluation operations live on the same repository; they are split out here
// because the query surface is wider than the other entities'.

func (r *GORMRepository) CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	if err := r.db.WithContext(ctx).Create(evaluation).Error; err != nil {
		slog.Error("Failed to create evaluation", "error", err, "employee_id", evaluation.EmployeeID)
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	slog.Info("Evaluation created", "evaluation_id", evaluation.ID, "employee_id", evaluation.EmployeeID, "status", evaluation.Status)
	return nil
}

// GetEvaluationByID loads an evaluation with the employee's membership set
// preloaded, the shape manager authorization checks need.
func (r *GORMRepository) GetEvaluationByID(ctx context.Context, id string) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Employee.Projects").
		Preload("Project").
		Where("id = ?", id).
		First(&evaluation).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get evaluation", "error", err, "evaluation_id", id)
		return nil, err
	}
	return &evaluation, nil
}

func (r *GORMRepository) GetEvaluations(ctx context.Context) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Project").
		Order("created_at DESC").
		Find(&evaluations).Error
	if err != nil {
		slog.Error("Failed to get evaluations", "error", err)
		return nil, err
	}
	return evaluations, nil
}

func (r *GORMRepository) GetEvaluationsByEmployee(ctx context.Context, employeeID string) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Project").
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&evaluations).Error
	if err != nil {
		slog.Error("Failed to get evaluations by employee", "error", err, "employee_id", employeeID)
		return nil, err
	}
	return evaluations, nil
}

func (r *GORMRepository) GetEvaluationsByReviewer(ctx context.Context, reviewerID string) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Project").
		Where("reviewer_id = ?", reviewerID).
		Order("created_at DESC").
		Find(&evaluations).Error
	if err != nil {
		slog.Error("Failed to get evaluations by reviewer", "error", err, "reviewer_id", reviewerID)
		return nil, err
	}
	return evaluations, nil
}

func (r *GORMRepository) GetEvaluationsByStatus(ctx context.Context, status models.EvaluationStatus) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Project").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&evaluations).Error
	if err != nil {
		slog.Error("Failed to get evaluations by status", "error", err, "status", status)
		return nil, err
	}
	return evaluations, nil
}

// GetEvaluationsByDepartment returns evaluations whose employee belongs to
// the given department.
func (r *GORMRepository) GetEvaluationsByDepartment(ctx context.Context, department string) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Project").
		Joins("JOIN users ON users.id = evaluations.employee_id").
		Where("users.department = ? AND users.deleted_at IS NULL", department).
		Order("evaluations.created_at DESC").
		Find(&evaluations).Error
	if err != nil {
		slog.Error("Failed to get evaluations by department", "error", err, "department", department)
		return nil, err
	}
	return evaluations, nil
}

// FindEvaluationForPeriod returns the newest evaluation for the
// (employee, project, year, month) tuple, or nil when none exists.
func (r *GORMRepository) FindEvaluationForPeriod(ctx context.Context, employeeID, projectID string, year, month int) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND project_id = ? AND evaluation_year = ? AND evaluation_month = ?",
			employeeID, projectID, year, month).
		Order("created_at DESC").
		First(&evaluation).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to find evaluation for period", "error", err, "employee_id", employeeID, "project_id", projectID)
		return nil, err
	}
	return &evaluation, nil
}

// EmployeeHasEvaluationForMonth reports whether the employee already has an
// evaluation for the given month and year, independent of project. Used by the
// monthly batch generator's idempotency check.
func (r *GORMRepository) EmployeeHasEvaluationForMonth(ctx context.Context, employeeID string, month, year int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Evaluation{}).
		Where("employee_id = ? AND evaluation_month = ? AND evaluation_year = ?", employeeID, month, year).
		Count(&count).Error
	if err != nil {
		slog.Error("Failed to count evaluations for month", "error", err, "employee_id", employeeID)
		return false, err
	}
	return count > 0, nil
}

// GetEvaluationsForProjects returns evaluations visible to a manager of the
// given projects: the employee belongs to one of them, or the evaluation
// itself is pinned to one of them (union, not intersection).
func (r *GORMRepository) GetEvaluationsForProjects(ctx context.Context, projectIDs []string) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	if len(projectIDs) == 0 {
		return evaluations, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Project").
		Where("project_id IN ? OR employee_id IN (SELECT user_id FROM user_projects WHERE project_id IN ?)",
			projectIDs, projectIDs).
		Order("created_at DESC").
		Find(&evaluations).Error
	if err != nil {
		slog.Error("Failed to get evaluations for projects", "error", err)
		return nil, err
	}
	return evaluations, nil
}

func (r *GORMRepository) SaveEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	if err := r.db.WithContext(ctx).Save(evaluation).Error; err != nil {
		slog.Error("Failed to save evaluation", "error", err, "evaluation_id", evaluation.ID)
		return fmt.Errorf("failed to save evaluation: %w", err)
	}
	slog.Info("Evaluation saved", "evaluation_id", evaluation.ID, "status", evaluation.Status)
	return nil
}

func (r *GORMRepository) DeleteEvaluation(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Evaluation{}).Error; err != nil {
		slog.Error("Failed to delete evaluation", "error", err, "evaluation_id", id)
		return err
	}
	slog.Info("Evaluation deleted", "evaluation_id", id)
	return nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"perfreview/competency"
	"perfreview/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EvaluationForm is the raw submission payload. Narrative fields are opaque;
// ratings get normalized and the overall score derived before persistence.
type EvaluationForm struct {
	OverallRating          *int           `json:"overallRating,omitempty"`
	CompetencyRatings      map[string]int `json:"competencyRatings,omitempty"`
	EmployeeName           string         `json:"employeeName,omitempty"`
	EmployeeEmail          string         `json:"employeeEmail,omitempty"`
	Achievements           string         `json:"achievements,omitempty"`
	Challenges             string         `json:"challenges,omitempty"`
	Learnings              string         `json:"learnings,omitempty"`
	NextPeriodGoals        string         `json:"nextPeriodGoals,omitempty"`
	AdditionalFeedback     string         `json:"additionalFeedback,omitempty"`
	ManagerFeedbackRequest string         `json:"managerFeedbackRequest,omitempty"`
	EvaluationYear         *int           `json:"evaluationYear,omitempty"`
	EvaluationQuarter      *int           `json:"evaluationQuarter,omitempty"`
}

// MonthFromQuarter maps a quarter to its representative month
// (Q1->1, Q2->4, Q3->7, Q4->10). ok is false outside [1,4].
func MonthFromQuarter(quarter int) (month int, ok bool) {
	switch quarter {
	case 1:
		return 1, true
	case 2:
		return 4, true
	case 3:
		return 7, true
	case 4:
		return 10, true
	}
	return 0, false
}

// EvaluationService owns the evaluation lifecycle: creation with duplicate
// guarding, manager scoring, visibility queries, authorized deletion and the
// monthly batch generator.
type EvaluationService struct {
	evaluations EvaluationStore
	users       UserStore
	projects    ProjectStore
	identity    *IdentityService
	authz       *AuthorizationService
}

func NewEvaluationService(evaluations EvaluationStore, users UserStore, projects ProjectStore, identity *IdentityService, authz *AuthorizationService) *EvaluationService {
	return &EvaluationService{
		evaluations: evaluations,
		users:       users,
		projects:    projects,
		identity:    identity,
		authz:       authz,
	}
}

// CreateEvaluation resolves the employee, validates the optional project
// association, normalizes ratings, derives the period key and persists a
// SUBMITTED evaluation. When an evaluation already exists for the period key
// the existing record is returned together with ErrDuplicateEvaluation.
func (s *EvaluationService) CreateEvaluation(ctx context.Context, form EvaluationForm, employeeRef string, reviewerID, projectID *string) (*models.Evaluation, error) {
	employee, err := s.identity.ResolveOrCreate(ctx, employeeRef)
	if err != nil {
		return nil, err
	}

	evaluation := &models.Evaluation{
		ID:         uuid.New().String(),
		EmployeeID: employee.ID,
	}

	// A reviewer reference that does not resolve is dropped rather than left
	// to fail the foreign key at insert.
	if reviewerID != nil && *reviewerID != "" {
		if reviewer, err := s.users.GetUserByID(ctx, *reviewerID); err == nil && reviewer != nil {
			evaluation.ReviewerID = &reviewer.ID
		}
	}

	if projectID != nil && *projectID != "" {
		project, err := s.projects.GetProjectByID(ctx, *projectID)
		if err != nil {
			// Lookup failure drops the association rather than the submission.
			slog.Warn("Project lookup failed, continuing without association", "error", err, "project_id", *projectID)
		} else if project != nil {
			member, err := s.users.GetUserWithProjects(ctx, employee.ID)
			if err != nil {
				return nil, err
			}
			// An empty membership set is allowed through permissively; profiles
			// may not have projects assigned yet.
			if member != nil && len(member.Projects) > 0 {
				if !belongsTo(member.Projects, project.ID) {
					return nil, fmt.Errorf("%w: selected project does not belong to the employee", ErrInvalidArgument)
				}
			}
			evaluation.ProjectID = &project.ID
		}
	}

	normalized := competency.Normalize(form.CompetencyRatings)
	evaluation.CompetencyRatings = datatypes.NewJSONType(normalized)
	evaluation.OverallRating = deriveOverallRating(normalized, form.OverallRating)

	if form.EvaluationYear != nil {
		year := *form.EvaluationYear
		evaluation.EvaluationYear = &year
	}
	if form.EvaluationQuarter != nil {
		if month, ok := MonthFromQuarter(*form.EvaluationQuarter); ok {
			evaluation.EvaluationMonth = &month
		}
	}

	// Duplicate guard: when the full period key is resolvable, an existing row
	// wins and the caller is told about it.
	if evaluation.ProjectID != nil && evaluation.EvaluationYear != nil && evaluation.EvaluationMonth != nil {
		existing, err := s.evaluations.FindEvaluationForPeriod(ctx, employee.ID, *evaluation.ProjectID,
			*evaluation.EvaluationYear, *evaluation.EvaluationMonth)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			slog.Info("Duplicate evaluation submission", "existing_id", existing.ID,
				"employee_id", employee.ID, "year", *evaluation.EvaluationYear, "month", *evaluation.EvaluationMonth)
			return existing, ErrDuplicateEvaluation
		}
	}

	evaluation.EmployeeName = form.EmployeeName
	evaluation.EmployeeEmail = form.EmployeeEmail
	if evaluation.EmployeeName == "" {
		evaluation.EmployeeName = employee.FullName()
	}
	if evaluation.EmployeeEmail == "" {
		evaluation.EmployeeEmail = employee.Email
	}

	evaluation.Achievements = form.Achievements
	evaluation.Challenges = form.Challenges
	evaluation.Learnings = form.Learnings
	evaluation.NextPeriodGoals = form.NextPeriodGoals
	evaluation.AdditionalFeedback = form.AdditionalFeedback
	evaluation.ManagerFeedbackRequest = form.ManagerFeedbackRequest

	now := time.Now()
	evaluation.Status = models.StatusSubmitted
	evaluation.SubmittedAt = &now

	if err := s.evaluations.CreateEvaluation(ctx, evaluation); err != nil {
		// The unique index on (employee, project, year, month) is the
		// authoritative duplicate signal; a concurrent submission can slip
		// past the existence read above, so re-read before giving up.
		if evaluation.ProjectID != nil && evaluation.EvaluationYear != nil && evaluation.EvaluationMonth != nil {
			existing, findErr := s.evaluations.FindEvaluationForPeriod(ctx, employee.ID, *evaluation.ProjectID,
				*evaluation.EvaluationYear, *evaluation.EvaluationMonth)
			if findErr == nil && existing != nil {
				return existing, ErrDuplicateEvaluation
			}
		}
		return nil, err
	}
	return evaluation, nil
}

// CheckForPeriod reports whether an evaluation already exists for the caller's
// (project, year, quarter) tuple, returning the existing record when it does.
func (s *EvaluationService) CheckForPeriod(ctx context.Context, employeeRef, projectID string, year, quarter int) (*models.Evaluation, error) {
	month, ok := MonthFromQuarter(quarter)
	if !ok {
		return nil, fmt.Errorf("%w: quarter must be between 1 and 4", ErrInvalidArgument)
	}
	employee, err := s.identity.Find(ctx, employeeRef)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, nil
	}
	return s.evaluations.FindEvaluationForPeriod(ctx, employee.ID, projectID, year, month)
}

// UpdateManagerOverallRating records the manager's single overall score.
func (s *EvaluationService) UpdateManagerOverallRating(ctx context.Context, evaluationID, managerID string, rating int) (*models.Evaluation, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: score must be between 1 and 5", ErrInvalidArgument)
	}
	evaluation, err := s.fetchForGrading(ctx, evaluationID, managerID)
	if err != nil {
		return nil, err
	}

	evaluation.ManagerRating = &rating
	markReviewed(evaluation)

	if err := s.evaluations.SaveEvaluation(ctx, evaluation); err != nil {
		return nil, err
	}
	slog.Info("Manager overall rating updated", "evaluation_id", evaluationID, "manager_id", managerID, "rating", rating)
	return evaluation, nil
}

// UpdateManagerCompetencyScore merges one canonicalized competency score into
// the manager's rating map.
func (s *EvaluationService) UpdateManagerCompetencyScore(ctx context.Context, evaluationID, managerID, competencyName string, score int) (*models.Evaluation, error) {
	if score < 1 || score > 5 {
		return nil, fmt.Errorf("%w: score must be between 1 and 5", ErrInvalidArgument)
	}
	evaluation, err := s.fetchForGrading(ctx, evaluationID, managerID)
	if err != nil {
		return nil, err
	}

	ratings := evaluation.ManagerCompetencyRatings.Data()
	if ratings == nil {
		ratings = make(map[string]int)
	}
	ratings[competency.Canonicalize(competencyName)] = score
	evaluation.ManagerCompetencyRatings = datatypes.NewJSONType(ratings)
	markReviewed(evaluation)

	if err := s.evaluations.SaveEvaluation(ctx, evaluation); err != nil {
		return nil, err
	}
	slog.Info("Manager competency score updated", "evaluation_id", evaluationID, "manager_id", managerID,
		"competency", competencyName, "score", score)
	return evaluation, nil
}

// SubmitReview records a one-shot manager review: overall rating, feedback,
// recommendations and an optional explicit status. Role gating happens at the
// boundary; no project check is applied here, matching the submit flow where
// the reviewer was already assigned at creation.
func (s *EvaluationService) SubmitReview(ctx context.Context, evaluationID, reviewerID string, managerRating *int, managerFeedback, recommendations string, status *models.EvaluationStatus) (*models.Evaluation, error) {
	evaluation, err := s.getEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}

	if reviewer, err := s.users.GetUserByID(ctx, reviewerID); err == nil && reviewer != nil {
		evaluation.ReviewerID = &reviewer.ID
	}
	if managerRating != nil {
		if *managerRating < 1 || *managerRating > 5 {
			return nil, fmt.Errorf("%w: score must be between 1 and 5", ErrInvalidArgument)
		}
		evaluation.ManagerRating = managerRating
	}
	evaluation.ManagerFeedback = managerFeedback
	evaluation.Recommendations = recommendations
	if status != nil {
		if !models.ValidEvaluationStatus(*status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, *status)
		}
		evaluation.Status = *status
	}
	now := time.Now()
	evaluation.ReviewedAt = &now

	if err := s.evaluations.SaveEvaluation(ctx, evaluation); err != nil {
		return nil, err
	}
	return evaluation, nil
}

// UpdateEvaluationStatus sets an explicit target state. There is no
// transition-table guard beyond role checks at the boundary; any state is
// reachable for an authorized caller, including ARCHIVED from anywhere.
func (s *EvaluationService) UpdateEvaluationStatus(ctx context.Context, evaluationID string, status models.EvaluationStatus) (*models.Evaluation, error) {
	if !models.ValidEvaluationStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}
	evaluation, err := s.getEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	evaluation.Status = status
	if err := s.evaluations.SaveEvaluation(ctx, evaluation); err != nil {
		return nil, err
	}
	return evaluation, nil
}

// GetManagerVisibleEvaluations returns every evaluation whose employee belongs
// to a project the manager manages, or whose own project association is one of
// them. Degrades to an empty list on any lookup failure.
func (s *EvaluationService) GetManagerVisibleEvaluations(ctx context.Context, managerID string) []models.Evaluation {
	manager, err := s.users.GetUserWithProjects(ctx, managerID)
	if err != nil || manager == nil || len(manager.ManagedProjects) == 0 {
		return []models.Evaluation{}
	}
	ids := make([]string, 0, len(manager.ManagedProjects))
	for _, p := range manager.ManagedProjects {
		ids = append(ids, p.ID)
	}
	evaluations, err := s.evaluations.GetEvaluationsForProjects(ctx, ids)
	if err != nil {
		slog.Warn("Manager visibility query failed, returning empty", "error", err, "manager_id", managerID)
		return []models.Evaluation{}
	}
	return evaluations
}

func (s *EvaluationService) GetAllEvaluations(ctx context.Context) ([]models.Evaluation, error) {
	return s.evaluations.GetEvaluations(ctx)
}

// GetEmployeeEvaluations is best-effort: storage failures yield an empty list.
func (s *EvaluationService) GetEmployeeEvaluations(ctx context.Context, employeeID string) []models.Evaluation {
	evaluations, err := s.evaluations.GetEvaluationsByEmployee(ctx, employeeID)
	if err != nil {
		return []models.Evaluation{}
	}
	return evaluations
}

func (s *EvaluationService) GetAssignedEvaluations(ctx context.Context, reviewerID string) ([]models.Evaluation, error) {
	return s.evaluations.GetEvaluationsByReviewer(ctx, reviewerID)
}

// GetDepartmentEvaluations lists evaluations for every employee in a
// department.
func (s *EvaluationService) GetDepartmentEvaluations(ctx context.Context, department string) ([]models.Evaluation, error) {
	if department == "" {
		return nil, fmt.Errorf("%w: department is required", ErrInvalidArgument)
	}
	return s.evaluations.GetEvaluationsByDepartment(ctx, department)
}

func (s *EvaluationService) GetEvaluationsByStatus(ctx context.Context, status models.EvaluationStatus) ([]models.Evaluation, error) {
	if !models.ValidEvaluationStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}
	return s.evaluations.GetEvaluationsByStatus(ctx, status)
}

// DeleteEvaluationAuthorized deletes unconditionally for admins; everyone else
// must pass the same project-overlap check as scoring.
func (s *EvaluationService) DeleteEvaluationAuthorized(ctx context.Context, evaluationID, requesterID string, isAdmin bool) error {
	evaluation, err := s.getEvaluation(ctx, evaluationID)
	if err != nil {
		return err
	}
	if !isAdmin {
		if requesterID == "" || !s.authz.IsManagerAuthorizedForEmployee(ctx, requesterID, evaluation.Employee) {
			return fmt.Errorf("%w: not authorized to delete this evaluation", ErrForbidden)
		}
	}
	if err := s.evaluations.DeleteEvaluation(ctx, evaluationID); err != nil {
		return err
	}
	slog.Info("Evaluation deleted", "evaluation_id", evaluationID, "requester_id", requesterID, "admin", isAdmin)
	return nil
}

// CreateMonthlyEvaluations creates one DRAFT evaluation per employee for the
// given period, skipping employees that already have one for that month and
// year regardless of project. Safe to re-run: the second pass creates nothing.
func (s *EvaluationService) CreateMonthlyEvaluations(ctx context.Context, month, year int) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidArgument)
	}
	if year < 2000 || year > 2100 {
		return 0, fmt.Errorf("%w: year %d out of range", ErrInvalidArgument, year)
	}

	slog.Info("Creating monthly evaluations", "month", month, "year", year)

	users, err := s.users.GetUsers(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range users {
		employee := &users[i]
		if !employee.HasRole(models.RoleEmployee) {
			continue
		}
		exists, err := s.evaluations.EmployeeHasEvaluationForMonth(ctx, employee.ID, month, year)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		m, y := month, year
		draft := &models.Evaluation{
			ID:              uuid.New().String(),
			EmployeeID:      employee.ID,
			EmployeeName:    employee.FullName(),
			EmployeeEmail:   employee.Email,
			EvaluationMonth: &m,
			EvaluationYear:  &y,
			Status:          models.StatusDraft,
			OverallRating:   0,
		}
		if err := s.evaluations.CreateEvaluation(ctx, draft); err != nil {
			return created, err
		}
		created++
		slog.Info("Created draft evaluation", "employee_email", employee.Email, "month", month, "year", year)
	}

	slog.Info("Monthly evaluations created", "count", created, "month", month, "year", year)
	return created, nil
}

// GetEmployeeAverageRatings averages an employee's competency scores across
// all their evaluations, grouped by canonical label. Best-effort: any lookup
// failure yields an empty map.
func (s *EvaluationService) GetEmployeeAverageRatings(ctx context.Context, employeeID string) map[string]float64 {
	evaluations, err := s.evaluations.GetEvaluationsByEmployee(ctx, employeeID)
	if err != nil {
		return map[string]float64{}
	}

	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, e := range evaluations {
		for k, v := range e.CompetencyRatings.Data() {
			canonical := competency.Canonicalize(k)
			sums[canonical] += v
			counts[canonical]++
		}
	}
	averages := make(map[string]float64, len(sums))
	for k, total := range sums {
		averages[k] = float64(total) / float64(counts[k])
	}
	return averages
}

func (s *EvaluationService) getEvaluation(ctx context.Context, evaluationID string) (*models.Evaluation, error) {
	evaluation, err := s.evaluations.GetEvaluationByID(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if evaluation == nil {
		return nil, fmt.Errorf("%w: evaluation %s", ErrNotFound, evaluationID)
	}
	return evaluation, nil
}

func (s *EvaluationService) fetchForGrading(ctx context.Context, evaluationID, managerID string) (*models.Evaluation, error) {
	evaluation, err := s.getEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if !s.authz.IsManagerAuthorizedForEmployee(ctx, managerID, evaluation.Employee) {
		return nil, fmt.Errorf("%w: not authorized to grade this employee", ErrForbidden)
	}
	return evaluation, nil
}

// deriveOverallRating is the rounded mean of the normalized competency values;
// with no competencies it falls back to the client-supplied overall, else 0.
// Halves round up, matching the submission UI's expectation (4.5 -> 5).
func deriveOverallRating(ratings map[string]int, fallback *int) int {
	if len(ratings) == 0 {
		if fallback != nil {
			return *fallback
		}
		return 0
	}
	sum := 0
	for _, v := range ratings {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(ratings))))
}

func markReviewed(evaluation *models.Evaluation) {
	now := time.Now()
	evaluation.ReviewedAt = &now
	evaluation.Status = models.StatusReviewed
}

func belongsTo(projects []models.Project, projectID string) bool {
	for _, p := range projects {
		if p.ID == projectID {
			return true
		}
	}
	return false
}

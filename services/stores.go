package services

import (
	"context"

	"perfreview/models"
)

// Store contracts consumed by the domain services. repository.GORMRepository
// satisfies all of them; tests plug in in-memory fakes.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserWithProjects(ctx context.Context, id string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	ReplaceUserProjects(ctx context.Context, user *models.User, projects []models.Project) error
	ReplaceManagedProjects(ctx context.Context, user *models.User, projects []models.Project) error
	DeleteUser(ctx context.Context, id string) error
	GetManagersForProjectIDs(ctx context.Context, projectIDs []string) ([]models.User, error)
}

type ProjectStore interface {
	CreateProject(ctx context.Context, project *models.Project) error
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	GetProjectByName(ctx context.Context, name string) (*models.Project, error)
	GetProjects(ctx context.Context) ([]models.Project, error)
	GetProjectsByIDs(ctx context.Context, ids []string) ([]models.Project, error)
}

type EvaluationStore interface {
	CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) error
	GetEvaluationByID(ctx context.Context, id string) (*models.Evaluation, error)
	GetEvaluations(ctx context.Context) ([]models.Evaluation, error)
	GetEvaluationsByEmployee(ctx context.Context, employeeID string) ([]models.Evaluation, error)
	GetEvaluationsByReviewer(ctx context.Context, reviewerID string) ([]models.Evaluation, error)
	GetEvaluationsByStatus(ctx context.Context, status models.EvaluationStatus) ([]models.Evaluation, error)
	GetEvaluationsByDepartment(ctx context.Context, department string) ([]models.Evaluation, error)
	FindEvaluationForPeriod(ctx context.Context, employeeID, projectID string, year, month int) (*models.Evaluation, error)
	EmployeeHasEvaluationForMonth(ctx context.Context, employeeID string, month, year int) (bool, error)
	GetEvaluationsForProjects(ctx context.Context, projectIDs []string) ([]models.Evaluation, error)
	SaveEvaluation(ctx context.Context, evaluation *models.Evaluation) error
	DeleteEvaluation(ctx context.Context, id string) error
}

type KeqStore interface {
	CreateKeq(ctx context.Context, keq *models.Keq) error
	GetKeqs(ctx context.Context) ([]models.Keq, error)
	GetKeqByID(ctx context.Context, id string) (*models.Keq, error)
	SaveKeq(ctx context.Context, keq *models.Keq) error
	DeleteKeq(ctx context.Context, id string) error
}

type PeerReviewStore interface {
	CreatePeerReview(ctx context.Context, review *models.PeerReview) error
	GetPeerReviewByID(ctx context.Context, id string) (*models.PeerReview, error)
	GetPeerReviewsByEvaluation(ctx context.Context, evaluationID string) ([]models.PeerReview, error)
	GetPeerReviewsByReviewer(ctx context.Context, reviewerID string) ([]models.PeerReview, error)
	FindPeerReview(ctx context.Context, evaluationID, reviewerID string) (*models.PeerReview, error)
	SavePeerReview(ctx context.Context, review *models.PeerReview) error
	DeletePeerReview(ctx context.Context, id string) error
}

type TokenStore interface {
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteAllUserTokens(ctx context.Context, userID string) error
}

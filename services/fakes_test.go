package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"

	"perfreview/models"
)

func jsonRatings(m map[string]int) datatypes.JSONType[map[string]int] {
	return datatypes.NewJSONType(m)
}

// fakeStore is an in-memory implementation of the store contracts used to
// exercise the services without a database.
type fakeStore struct {
	users       map[string]*models.User
	projects    map[string]*models.Project
	evaluations map[string]*models.Evaluation
	keqs        map[string]*models.Keq
	peerReviews map[string]*models.PeerReview
	tokens      map[string]*models.RefreshToken

	failUserReads bool
	failEvalReads bool

	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]*models.User),
		projects:    make(map[string]*models.Project),
		evaluations: make(map[string]*models.Evaluation),
		keqs:        make(map[string]*models.Keq),
		peerReviews: make(map[string]*models.PeerReview),
		tokens:      make(map[string]*models.RefreshToken),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) addUser(user models.User) *models.User {
	if user.ID == "" {
		user.ID = f.id("user")
	}
	f.users[user.ID] = &user
	return &user
}

func (f *fakeStore) addProject(name string) *models.Project {
	project := &models.Project{ID: f.id("project"), Name: name}
	f.projects[project.ID] = project
	return project
}

// UserStore

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	for _, existing := range f.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	if user.ID == "" {
		user.ID = f.id("user")
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if f.failUserReads {
		return nil, errors.New("store unavailable")
	}
	return f.users[id], nil
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.failUserReads {
		return nil, errors.New("store unavailable")
	}
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.failUserReads {
		return nil, errors.New("store unavailable")
	}
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetUserWithProjects(ctx context.Context, id string) (*models.User, error) {
	if f.failUserReads {
		return nil, errors.New("store unavailable")
	}
	return f.users[id], nil
}

func (f *fakeStore) GetUsers(ctx context.Context) ([]models.User, error) {
	if f.failUserReads {
		return nil, errors.New("store unavailable")
	}
	users := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, *u)
	}
	return users, nil
}

func (f *fakeStore) SaveUser(ctx context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) ReplaceUserProjects(ctx context.Context, user *models.User, projects []models.Project) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return errors.New("user not found")
	}
	stored.Projects = projects
	return nil
}

func (f *fakeStore) ReplaceManagedProjects(ctx context.Context, user *models.User, projects []models.Project) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return errors.New("user not found")
	}
	stored.ManagedProjects = projects
	return nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeStore) GetManagersForProjectIDs(ctx context.Context, projectIDs []string) ([]models.User, error) {
	if f.failUserReads {
		return nil, errors.New("store unavailable")
	}
	wanted := make(map[string]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		wanted[id] = struct{}{}
	}
	var managers []models.User
	for _, u := range f.users {
		for _, p := range u.ManagedProjects {
			if _, ok := wanted[p.ID]; ok {
				managers = append(managers, *u)
				break
			}
		}
	}
	return managers, nil
}

// ProjectStore

func (f *fakeStore) CreateProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = f.id("project")
	}
	f.projects[project.ID] = project
	return nil
}

func (f *fakeStore) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	return f.projects[id], nil
}

func (f *fakeStore) GetProjectByName(ctx context.Context, name string) (*models.Project, error) {
	for _, p := range f.projects {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetProjects(ctx context.Context) ([]models.Project, error) {
	projects := make([]models.Project, 0, len(f.projects))
	for _, p := range f.projects {
		projects = append(projects, *p)
	}
	return projects, nil
}

func (f *fakeStore) GetProjectsByIDs(ctx context.Context, ids []string) ([]models.Project, error) {
	var projects []models.Project
	for _, id := range ids {
		if p, ok := f.projects[id]; ok {
			projects = append(projects, *p)
		}
	}
	return projects, nil
}

// EvaluationStore

func (f *fakeStore) CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	// Mirrors the partial unique index over live rows: deleted evaluations do
	// not block a new submission for the same period.
	if evaluation.ProjectID != nil && evaluation.EvaluationYear != nil && evaluation.EvaluationMonth != nil {
		for _, e := range f.evaluations {
			if e.EmployeeID != evaluation.EmployeeID || e.ProjectID == nil || *e.ProjectID != *evaluation.ProjectID {
				continue
			}
			if e.EvaluationYear != nil && *e.EvaluationYear == *evaluation.EvaluationYear &&
				e.EvaluationMonth != nil && *e.EvaluationMonth == *evaluation.EvaluationMonth {
				return errors.New(`duplicate key value violates unique constraint "idx_evaluation_period"`)
			}
		}
	}
	if evaluation.ID == "" {
		evaluation.ID = f.id("evaluation")
	}
	f.evaluations[evaluation.ID] = evaluation
	return nil
}

func (f *fakeStore) GetEvaluationByID(ctx context.Context, id string) (*models.Evaluation, error) {
	if f.failEvalReads {
		return nil, errors.New("store unavailable")
	}
	evaluation, ok := f.evaluations[id]
	if !ok {
		return nil, nil
	}
	if evaluation.Employee == nil {
		evaluation.Employee = f.users[evaluation.EmployeeID]
	}
	return evaluation, nil
}

func (f *fakeStore) GetEvaluations(ctx context.Context) ([]models.Evaluation, error) {
	if f.failEvalReads {
		return nil, errors.New("store unavailable")
	}
	evaluations := make([]models.Evaluation, 0, len(f.evaluations))
	for _, e := range f.evaluations {
		evaluations = append(evaluations, *e)
	}
	return evaluations, nil
}

func (f *fakeStore) GetEvaluationsByEmployee(ctx context.Context, employeeID string) ([]models.Evaluation, error) {
	if f.failEvalReads {
		return nil, errors.New("store unavailable")
	}
	var evaluations []models.Evaluation
	for _, e := range f.evaluations {
		if e.EmployeeID == employeeID {
			evaluations = append(evaluations, *e)
		}
	}
	return evaluations, nil
}

func (f *fakeStore) GetEvaluationsByReviewer(ctx context.Context, reviewerID string) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	for _, e := range f.evaluations {
		if e.ReviewerID != nil && *e.ReviewerID == reviewerID {
			evaluations = append(evaluations, *e)
		}
	}
	return evaluations, nil
}

func (f *fakeStore) GetEvaluationsByStatus(ctx context.Context, status models.EvaluationStatus) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	for _, e := range f.evaluations {
		if e.Status == status {
			evaluations = append(evaluations, *e)
		}
	}
	return evaluations, nil
}

func (f *fakeStore) FindEvaluationForPeriod(ctx context.Context, employeeID, projectID string, year, month int) (*models.Evaluation, error) {
	if f.failEvalReads {
		return nil, errors.New("store unavailable")
	}
	for _, e := range f.evaluations {
		if e.EmployeeID != employeeID || e.ProjectID == nil || *e.ProjectID != projectID {
			continue
		}
		if e.EvaluationYear != nil && *e.EvaluationYear == year && e.EvaluationMonth != nil && *e.EvaluationMonth == month {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) EmployeeHasEvaluationForMonth(ctx context.Context, employeeID string, month, year int) (bool, error) {
	if f.failEvalReads {
		return false, errors.New("store unavailable")
	}
	for _, e := range f.evaluations {
		if e.EmployeeID != employeeID {
			continue
		}
		if e.EvaluationMonth != nil && *e.EvaluationMonth == month && e.EvaluationYear != nil && *e.EvaluationYear == year {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetEvaluationsForProjects(ctx context.Context, projectIDs []string) ([]models.Evaluation, error) {
	if f.failEvalReads {
		return nil, errors.New("store unavailable")
	}
	wanted := make(map[string]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		wanted[id] = struct{}{}
	}
	var evaluations []models.Evaluation
	for _, e := range f.evaluations {
		if e.ProjectID != nil {
			if _, ok := wanted[*e.ProjectID]; ok {
				evaluations = append(evaluations, *e)
				continue
			}
		}
		if employee, ok := f.users[e.EmployeeID]; ok {
			for _, p := range employee.Projects {
				if _, ok := wanted[p.ID]; ok {
					evaluations = append(evaluations, *e)
					break
				}
			}
		}
	}
	return evaluations, nil
}

func (f *fakeStore) SaveEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	f.evaluations[evaluation.ID] = evaluation
	return nil
}

func (f *fakeStore) GetEvaluationsByDepartment(ctx context.Context, department string) ([]models.Evaluation, error) {
	if f.failEvalReads {
		return nil, errors.New("store unavailable")
	}
	var evaluations []models.Evaluation
	for _, e := range f.evaluations {
		if employee, ok := f.users[e.EmployeeID]; ok && employee.Department == department {
			evaluations = append(evaluations, *e)
		}
	}
	return evaluations, nil
}

func (f *fakeStore) DeleteEvaluation(ctx context.Context, id string) error {
	delete(f.evaluations, id)
	return nil
}

// KeqStore

func (f *fakeStore) CreateKeq(ctx context.Context, keq *models.Keq) error {
	if keq.ID == "" {
		keq.ID = f.id("keq")
	}
	f.keqs[keq.ID] = keq
	return nil
}

func (f *fakeStore) GetKeqs(ctx context.Context) ([]models.Keq, error) {
	keqs := make([]models.Keq, 0, len(f.keqs))
	for _, k := range f.keqs {
		keqs = append(keqs, *k)
	}
	return keqs, nil
}

func (f *fakeStore) GetKeqByID(ctx context.Context, id string) (*models.Keq, error) {
	return f.keqs[id], nil
}

func (f *fakeStore) SaveKeq(ctx context.Context, keq *models.Keq) error {
	f.keqs[keq.ID] = keq
	return nil
}

func (f *fakeStore) DeleteKeq(ctx context.Context, id string) error {
	delete(f.keqs, id)
	return nil
}

// PeerReviewStore

func (f *fakeStore) CreatePeerReview(ctx context.Context, review *models.PeerReview) error {
	if review.ID == "" {
		review.ID = f.id("review")
	}
	f.peerReviews[review.ID] = review
	return nil
}

func (f *fakeStore) GetPeerReviewByID(ctx context.Context, id string) (*models.PeerReview, error) {
	return f.peerReviews[id], nil
}

func (f *fakeStore) GetPeerReviewsByEvaluation(ctx context.Context, evaluationID string) ([]models.PeerReview, error) {
	var reviews []models.PeerReview
	for _, r := range f.peerReviews {
		if r.EvaluationID == evaluationID {
			reviews = append(reviews, *r)
		}
	}
	return reviews, nil
}

func (f *fakeStore) GetPeerReviewsByReviewer(ctx context.Context, reviewerID string) ([]models.PeerReview, error) {
	var reviews []models.PeerReview
	for _, r := range f.peerReviews {
		if r.ReviewerID == reviewerID {
			reviews = append(reviews, *r)
		}
	}
	return reviews, nil
}

func (f *fakeStore) FindPeerReview(ctx context.Context, evaluationID, reviewerID string) (*models.PeerReview, error) {
	for _, r := range f.peerReviews {
		if r.EvaluationID == evaluationID && r.ReviewerID == reviewerID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SavePeerReview(ctx context.Context, review *models.PeerReview) error {
	f.peerReviews[review.ID] = review
	return nil
}

func (f *fakeStore) DeletePeerReview(ctx context.Context, id string) error {
	delete(f.peerReviews, id)
	return nil
}

// TokenStore

func (f *fakeStore) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = f.id("token")
	}
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeStore) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return f.tokens[token], nil
}

func (f *fakeStore) DeleteAllUserTokens(ctx context.Context, userID string) error {
	for key, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, key)
		}
	}
	return nil
}

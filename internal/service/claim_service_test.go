package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedekind-labs/sua-api/internal/models"
	"github.com/dedekind-labs/sua-api/internal/repository"
	appErrors "github.com/dedekind-labs/sua-api/pkg/errors"
)

type mockClaimRepo struct {
	submitted     *models.Sua
	submittedApp  *models.Application
	submissionErr error
	detail        *models.ApplicationDetail
	detailErr     error
	listed        []models.ApplicationDetail
	listFilter    models.ApplicationFilter
	reviewOutcome *repository.ReviewOutcome
	reviewErr     error
}

func (m *mockClaimRepo) CreateSubmission(ctx context.Context, sua *models.Sua, app *models.Application) error {
	if m.submissionErr != nil {
		return m.submissionErr
	}
	sua.ID = "sua1"
	app.ID = "app1"
	app.SuaID = sua.ID
	m.submitted = sua
	m.submittedApp = app
	return nil
}

func (m *mockClaimRepo) FindApplicationByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	return m.detail, nil
}

func (m *mockClaimRepo) ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	m.listFilter = filter
	return m.listed, len(m.listed), nil
}

func (m *mockClaimRepo) Review(ctx context.Context, applicationID string, approve bool, feedback string, now time.Time) (*repository.ReviewOutcome, error) {
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	return m.reviewOutcome, nil
}

type mockProofRepo struct {
	created   *models.Proof
	offline   *models.Proof
	createErr error
}

func (m *mockProofRepo) Create(ctx context.Context, proof *models.Proof) error {
	if m.createErr != nil {
		return m.createErr
	}
	proof.ID = "pr1"
	m.created = proof
	return nil
}

func (m *mockProofRepo) FindOrCreateOffline(ctx context.Context, now time.Time) (*models.Proof, error) {
	if m.offline == nil {
		m.offline = &models.Proof{ID: "pr-off", IsOffline: true, Date: now}
	}
	return m.offline, nil
}

type mockClaimActivityRepo struct {
	activity *models.Activity
	err      error
}

func (m *mockClaimActivityRepo) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.activity, nil
}

type mockClaimSuaRepo struct {
	existing *models.Sua
	records  []models.SuaDetail
	listErr  error
}

func (m *mockClaimSuaRepo) FindByStudentActivity(ctx context.Context, studentID, activityID string) (*models.Sua, error) {
	if m.existing == nil {
		return nil, sql.ErrNoRows
	}
	return m.existing, nil
}

func (m *mockClaimSuaRepo) ListByStudent(ctx context.Context, studentID string, validOnly bool) ([]models.SuaDetail, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.records, nil
}

func studentActor() models.ActorView {
	id := "st1"
	return models.ActorView{UserID: "u1", Username: "li2026", Role: models.RoleStudent, StudentID: &id}
}

func staffActor() models.ActorView {
	return models.ActorView{UserID: "u9", Username: "admin", Role: models.RoleStaff}
}

func newClaimService(claims *mockClaimRepo, proofs *mockProofRepo, activities *mockClaimActivityRepo, suas *mockClaimSuaRepo) *ClaimService {
	return NewClaimService(claims, proofs, activities, suas, nil, nil)
}

func TestSubmitOfflineClaim(t *testing.T) {
	claims := &mockClaimRepo{detail: &models.ApplicationDetail{Application: models.Application{ID: "app1"}, StudentID: "st1"}}
	proofs := &mockProofRepo{}
	activities := &mockClaimActivityRepo{activity: &models.Activity{ID: "act1", IsValid: true}}
	suas := &mockClaimSuaRepo{}
	svc := newClaimService(claims, proofs, activities, suas)

	detail, err := svc.Submit(context.Background(), studentActor(), models.SubmitClaimRequest{
		ActivityID: "act1", Team: "Garden", SuaHours: 3, Contact: "13800000000", Offline: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "app1", detail.ID)
	assert.Equal(t, "pr-off", claims.submittedApp.ProofID)
	assert.False(t, claims.submitted.IsValid)
	assert.Equal(t, models.StatusPending, claims.submittedApp.Status)
}

func TestSubmitOnlineClaimCreatesProof(t *testing.T) {
	claims := &mockClaimRepo{detail: &models.ApplicationDetail{Application: models.Application{ID: "app1"}, StudentID: "st1"}}
	proofs := &mockProofRepo{}
	activities := &mockClaimActivityRepo{activity: &models.Activity{ID: "act1", IsValid: true}}
	svc := newClaimService(claims, proofs, activities, &mockClaimSuaRepo{})

	_, err := svc.Submit(context.Background(), studentActor(), models.SubmitClaimRequest{
		ActivityID: "act1", Team: "Library", SuaHours: 2, Contact: "13800000000", ProofFilePath: "uploads/receipt.jpg",
	})
	require.NoError(t, err)
	require.NotNil(t, proofs.created)
	assert.Equal(t, "uploads/receipt.jpg", proofs.created.FilePath)
	require.NotNil(t, proofs.created.OwnerUserID)
	assert.Equal(t, "u1", *proofs.created.OwnerUserID)
}

func TestSubmitOnlineWithoutProofRejected(t *testing.T) {
	svc := newClaimService(&mockClaimRepo{}, &mockProofRepo{}, &mockClaimActivityRepo{}, &mockClaimSuaRepo{})

	_, err := svc.Submit(context.Background(), studentActor(), models.SubmitClaimRequest{
		ActivityID: "act1", Team: "Garden", Contact: "13800000000",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmitRequiresStudentRecord(t *testing.T) {
	svc := newClaimService(&mockClaimRepo{}, &mockProofRepo{}, &mockClaimActivityRepo{}, &mockClaimSuaRepo{})

	_, err := svc.Submit(context.Background(), staffActor(), models.SubmitClaimRequest{
		ActivityID: "act1", Team: "Garden", Contact: "13800000000", Offline: true,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErr.Code)
}

func TestSubmitDuplicateClaim(t *testing.T) {
	activities := &mockClaimActivityRepo{activity: &models.Activity{ID: "act1", IsValid: true}}
	suas := &mockClaimSuaRepo{existing: &models.Sua{ID: "sua0"}}
	svc := newClaimService(&mockClaimRepo{}, &mockProofRepo{}, activities, suas)

	_, err := svc.Submit(context.Background(), studentActor(), models.SubmitClaimRequest{
		ActivityID: "act1", Team: "Garden", Contact: "13800000000", Offline: true,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestSubmitClosedActivity(t *testing.T) {
	activities := &mockClaimActivityRepo{activity: &models.Activity{ID: "act1", IsValid: false}}
	svc := newClaimService(&mockClaimRepo{}, &mockProofRepo{}, activities, &mockClaimSuaRepo{})

	_, err := svc.Submit(context.Background(), studentActor(), models.SubmitClaimRequest{
		ActivityID: "act1", Team: "Garden", Contact: "13800000000", Offline: true,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmitNegativeHoursRejected(t *testing.T) {
	svc := newClaimService(&mockClaimRepo{}, &mockProofRepo{}, &mockClaimActivityRepo{}, &mockClaimSuaRepo{})

	_, err := svc.Submit(context.Background(), studentActor(), models.SubmitClaimRequest{
		ActivityID: "act1", Team: "Garden", Contact: "13800000000", SuaHours: -1, Offline: true,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

type syncProofRepo struct {
	mu      sync.Mutex
	creates int
	offline *models.Proof
}

func (m *syncProofRepo) Create(ctx context.Context, proof *models.Proof) error { return nil }

func (m *syncProofRepo) FindOrCreateOffline(ctx context.Context, now time.Time) (*models.Proof, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline == nil {
		m.creates++
		m.offline = &models.Proof{ID: "pr-off", IsOffline: true, Date: now}
	}
	return m.offline, nil
}

type syncClaimRepo struct {
	mu      sync.Mutex
	seq     int
	details map[string]*models.ApplicationDetail
}

func (m *syncClaimRepo) CreateSubmission(ctx context.Context, sua *models.Sua, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	sua.ID = fmt.Sprintf("sua-%d", m.seq)
	app.ID = fmt.Sprintf("app-%d", m.seq)
	app.SuaID = sua.ID
	if m.details == nil {
		m.details = make(map[string]*models.ApplicationDetail)
	}
	m.details[app.ID] = &models.ApplicationDetail{Application: *app, StudentID: sua.StudentID}
	return nil
}

func (m *syncClaimRepo) FindApplicationByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	detail, ok := m.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return detail, nil
}

func (m *syncClaimRepo) ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	return nil, 0, nil
}

func (m *syncClaimRepo) Review(ctx context.Context, applicationID string, approve bool, feedback string, now time.Time) (*repository.ReviewOutcome, error) {
	return nil, sql.ErrNoRows
}

type syncActivityRepo struct{}

func (syncActivityRepo) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	return &models.Activity{ID: id, IsValid: true}, nil
}

func TestConcurrentOfflineSubmitsShareOneProof(t *testing.T) {
	claims := &syncClaimRepo{}
	proofs := &syncProofRepo{}
	svc := NewClaimService(claims, proofs, syncActivityRepo{}, &mockClaimSuaRepo{}, nil, nil)

	const n = 16
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), studentActor(), models.SubmitClaimRequest{
				ActivityID: fmt.Sprintf("act-%d", i), Team: "Garden", Contact: "13800000000", SuaHours: 1, Offline: true,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, proofs.creates)
	require.Len(t, claims.details, n)
	for _, detail := range claims.details {
		assert.Equal(t, "pr-off", detail.ProofID)
	}
}

func TestReviewRequiresStaff(t *testing.T) {
	svc := newClaimService(&mockClaimRepo{}, &mockProofRepo{}, &mockClaimActivityRepo{}, &mockClaimSuaRepo{})

	approve := true
	_, err := svc.Review(context.Background(), studentActor(), "app1", models.ReviewRequest{Approve: &approve})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestReviewSecondVerdictConflicts(t *testing.T) {
	claims := &mockClaimRepo{reviewErr: repository.ErrAlreadyChecked}
	svc := newClaimService(claims, &mockProofRepo{}, &mockClaimActivityRepo{}, &mockClaimSuaRepo{})

	approve := false
	_, err := svc.Review(context.Background(), staffActor(), "app1", models.ReviewRequest{Approve: &approve})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrAlreadyReviewed.Code, appErr.Code)
}

func TestReviewUnknownApplicationNotFound(t *testing.T) {
	claims := &mockClaimRepo{reviewErr: sql.ErrNoRows}
	svc := newClaimService(claims, &mockProofRepo{}, &mockClaimActivityRepo{}, &mockClaimSuaRepo{})

	approve := true
	_, err := svc.Review(context.Background(), staffActor(), "missing", models.ReviewRequest{Approve: &approve})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReviewApproveReturnsDetail(t *testing.T) {
	claims := &mockClaimRepo{
		reviewOutcome: &repository.ReviewOutcome{SuaID: "sua1", StudentID: "st1", TotalHours: 7},
		detail:        &models.ApplicationDetail{Application: models.Application{ID: "app1", IsChecked: true, Status: models.StatusApproved}},
	}
	svc := newClaimService(claims, &mockProofRepo{}, &mockClaimActivityRepo{}, &mockClaimSuaRepo{})

	approve := true
	detail, err := svc.Review(context.Background(), staffActor(), "app1", models.ReviewRequest{Approve: &approve, Feedback: "ok"})
	require.NoError(t, err)
	assert.True(t, detail.IsChecked)
	assert.Equal(t, models.StatusApproved, detail.Status)
}

func TestGetScopesStudents(t *testing.T) {
	claims := &mockClaimRepo{detail: &models.ApplicationDetail{Application: models.Application{ID: "app1"}, StudentID: "someone-else"}}
	svc := newClaimService(claims, &mockProofRepo{}, &mockClaimActivityRepo{}, &mockClaimSuaRepo{})

	_, err := svc.Get(context.Background(), studentActor(), "app1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestListForcesStudentScope(t *testing.T) {
	claims := &mockClaimRepo{}
	svc := newClaimService(claims, &mockProofRepo{}, &mockClaimActivityRepo{}, &mockClaimSuaRepo{})

	_, _, err := svc.List(context.Background(), studentActor(), models.ApplicationFilter{StudentID: "someone-else"})
	require.NoError(t, err)
	assert.Equal(t, "st1", claims.listFilter.StudentID)
}

func TestListRecordsRequiresStudent(t *testing.T) {
	svc := newClaimService(&mockClaimRepo{}, &mockProofRepo{}, &mockClaimActivityRepo{}, &mockClaimSuaRepo{})

	_, err := svc.ListRecords(context.Background(), staffActor(), true)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErr.Code)
}

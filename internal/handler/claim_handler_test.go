package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedekind-labs/sua-api/internal/middleware"
	"github.com/dedekind-labs/sua-api/internal/models"
	"github.com/dedekind-labs/sua-api/internal/repository"
	"github.com/dedekind-labs/sua-api/internal/service"
)

type claimRepoStub struct {
	detail    *models.ApplicationDetail
	reviewErr error
}

func (s *claimRepoStub) CreateSubmission(ctx context.Context, sua *models.Sua, app *models.Application) error {
	sua.ID = "sua1"
	app.ID = "app1"
	app.SuaID = sua.ID
	return nil
}

func (s *claimRepoStub) FindApplicationByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	return s.detail, nil
}

func (s *claimRepoStub) ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	if s.detail == nil {
		return nil, 0, nil
	}
	return []models.ApplicationDetail{*s.detail}, 1, nil
}

func (s *claimRepoStub) Review(ctx context.Context, applicationID string, approve bool, feedback string, now time.Time) (*repository.ReviewOutcome, error) {
	if s.reviewErr != nil {
		return nil, s.reviewErr
	}
	return &repository.ReviewOutcome{SuaID: "sua1", StudentID: "st1", TotalHours: 5}, nil
}

type proofRepoStub struct{}

func (proofRepoStub) Create(ctx context.Context, proof *models.Proof) error {
	proof.ID = "pr1"
	return nil
}

func (proofRepoStub) FindOrCreateOffline(ctx context.Context, now time.Time) (*models.Proof, error) {
	return &models.Proof{ID: "pr-off", IsOffline: true}, nil
}

type activityRepoStub struct{}

func (activityRepoStub) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	return &models.Activity{ID: id, IsValid: true}, nil
}

type suaRepoStub struct{}

func (suaRepoStub) FindByStudentActivity(ctx context.Context, studentID, activityID string) (*models.Sua, error) {
	return nil, sql.ErrNoRows
}

func (suaRepoStub) ListByStudent(ctx context.Context, studentID string, validOnly bool) ([]models.SuaDetail, error) {
	return nil, nil
}

func claimTestRouter(repo *claimRepoStub, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewClaimService(repo, proofRepoStub{}, activityRepoStub{}, suaRepoStub{}, nil, nil)
	h := NewClaimHandler(svc, service.NewMetricsService())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, claims)
		c.Next()
	})
	r.POST("/claims", h.Submit)
	r.POST("/claims/:id/review", h.Review)
	r.GET("/claims", h.List)
	return r
}

func studentClaims() *models.JWTClaims {
	id := "st1"
	return &models.JWTClaims{UserID: "u1", Username: "li2026", Role: models.RoleStudent, StudentID: &id}
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u9", Username: "admin", Role: models.RoleStaff}
}

func TestClaimSubmitEndpoint(t *testing.T) {
	repo := &claimRepoStub{detail: &models.ApplicationDetail{Application: models.Application{ID: "app1", Status: models.StatusPending}, StudentID: "st1"}}
	r := claimTestRouter(repo, studentClaims())

	body, _ := json.Marshal(models.SubmitClaimRequest{ActivityID: "act1", Team: "Garden", SuaHours: 3, Contact: "13800000000", Offline: true})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/claims", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "app1")
	assert.Contains(t, w.Body.String(), "PENDING")
}

func TestClaimSubmitMalformedBody(t *testing.T) {
	r := claimTestRouter(&claimRepoStub{}, studentClaims())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/claims", bytes.NewBufferString(`{"activity_id":`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimReviewAlreadyReviewed(t *testing.T) {
	repo := &claimRepoStub{reviewErr: repository.ErrAlreadyChecked}
	r := claimTestRouter(repo, staffClaims())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/claims/app1/review", bytes.NewBufferString(`{"approve":true}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClaimReviewForbiddenForStudents(t *testing.T) {
	r := claimTestRouter(&claimRepoStub{}, studentClaims())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/claims/app1/review", bytes.NewBufferString(`{"approve":false}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClaimListEndpoint(t *testing.T) {
	repo := &claimRepoStub{detail: &models.ApplicationDetail{Application: models.Application{ID: "app1"}, StudentID: "st1"}}
	r := claimTestRouter(repo, studentClaims())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/claims?page=1&page_size=10", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app1")
}

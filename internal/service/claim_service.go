package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dedekind-labs/sua-api/internal/models"
	"github.com/dedekind-labs/sua-api/internal/repository"
	appErrors "github.com/dedekind-labs/sua-api/pkg/errors"
)

type claimRepository interface {
	CreateSubmission(ctx context.Context, sua *models.Sua, app *models.Application) error
	FindApplicationByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
	ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
	Review(ctx context.Context, applicationID string, approve bool, feedback string, now time.Time) (*repository.ReviewOutcome, error)
}

type claimProofRepository interface {
	Create(ctx context.Context, proof *models.Proof) error
	FindOrCreateOffline(ctx context.Context, now time.Time) (*models.Proof, error)
}

type claimActivityRepository interface {
	FindByID(ctx context.Context, id string) (*models.Activity, error)
}

type claimSuaRepository interface {
	FindByStudentActivity(ctx context.Context, studentID, activityID string) (*models.Sua, error)
	ListByStudent(ctx context.Context, studentID string, validOnly bool) ([]models.SuaDetail, error)
}

// ClaimService handles the claim lifecycle: student submission and staff
// review.
type ClaimService struct {
	claims     claimRepository
	proofs     claimProofRepository
	activities claimActivityRepository
	suas       claimSuaRepository
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewClaimService constructs a ClaimService.
func NewClaimService(claims claimRepository, proofs claimProofRepository, activities claimActivityRepository, suas claimSuaRepository, validate *validator.Validate, logger *zap.Logger) *ClaimService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClaimService{
		claims:     claims,
		proofs:     proofs,
		activities: activities,
		suas:       suas,
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit records a new claim for the acting student. The Sua is created
// invalid with a pending application; an offline claim attaches the shared
// offline proof, an online one a freshly created upload reference.
func (s *ClaimService) Submit(ctx context.Context, actor models.ActorView, req models.SubmitClaimRequest) (*models.ApplicationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid claim payload")
	}
	if !actor.HasStudent() {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "only students can submit claims")
	}
	if !req.Offline && req.ProofFilePath == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "online claims require an uploaded proof")
	}

	activity, err := s.activities.FindByID(ctx, req.ActivityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	if !activity.IsValid {
		return nil, appErrors.Clone(appErrors.ErrValidation, "activity is not open for submissions")
	}

	studentID := *actor.StudentID
	if _, err := s.suas.FindByStudentActivity(ctx, studentID, req.ActivityID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a claim for this activity already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing claims")
	}

	now := s.now()
	proof, err := s.resolveProof(ctx, actor, req, now)
	if err != nil {
		return nil, err
	}

	sua := &models.Sua{
		StudentID:  studentID,
		ActivityID: req.ActivityID,
		Team:       req.Team,
		SuaHours:   req.SuaHours,
		IsValid:    false,
		Date:       now,
	}
	app := &models.Application{
		ProofID:   proof.ID,
		Date:      now,
		Contact:   req.Contact,
		IsChecked: false,
		Status:    models.StatusPending,
	}

	if err := s.claims.CreateSubmission(ctx, sua, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
	}

	s.logger.Info("claim submitted",
		zap.String("application_id", app.ID),
		zap.String("student_id", studentID),
		zap.String("activity_id", req.ActivityID),
		zap.Float64("sua_hours", req.SuaHours),
		zap.Bool("offline", req.Offline))

	detail, err := s.claims.FindApplicationByID(ctx, app.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return detail, nil
}

func (s *ClaimService) resolveProof(ctx context.Context, actor models.ActorView, req models.SubmitClaimRequest, now time.Time) (*models.Proof, error) {
	if req.Offline {
		proof, err := s.proofs.FindOrCreateOffline(ctx, now)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve offline proof")
		}
		return proof, nil
	}

	proof := &models.Proof{
		OwnerUserID: &actor.UserID,
		Date:        now,
		IsOffline:   false,
		FilePath:    req.ProofFilePath,
	}
	if err := s.proofs.Create(ctx, proof); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store proof")
	}
	return proof, nil
}

// Review applies a staff verdict exactly once. A repeated verdict on the
// same application surfaces as a conflict.
func (s *ClaimService) Review(ctx context.Context, actor models.ActorView, applicationID string, req models.ReviewRequest) (*models.ApplicationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can review claims")
	}

	outcome, err := s.claims.Review(ctx, applicationID, *req.Approve, req.Feedback, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyChecked):
			return nil, appErrors.Clone(appErrors.ErrAlreadyReviewed, "")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review application")
		}
	}

	s.logger.Info("claim reviewed",
		zap.String("application_id", applicationID),
		zap.String("reviewer_id", actor.UserID),
		zap.Bool("approved", *req.Approve),
		zap.Float64("total_hours", outcome.TotalHours))

	detail, err := s.claims.FindApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviewed application")
	}
	return detail, nil
}

// Get returns one application. Students only see their own.
func (s *ClaimService) Get(ctx context.Context, actor models.ActorView, id string) (*models.ApplicationDetail, error) {
	detail, err := s.claims.FindApplicationByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if !actor.IsStaff() && (!actor.HasStudent() || detail.StudentID != *actor.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application belongs to another student")
	}
	return detail, nil
}

// List returns applications. Staff see the full queue; students are scoped
// to their own submissions regardless of the requested filter.
func (s *ClaimService) List(ctx context.Context, actor models.ActorView, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	if !actor.IsStaff() {
		if !actor.HasStudent() {
			return nil, 0, appErrors.Clone(appErrors.ErrNotEligible, "account has no student record")
		}
		filter.StudentID = *actor.StudentID
	}
	details, total, err := s.claims.ListApplications(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return details, total, nil
}

// ListRecords returns the acting student's service-hour records.
func (s *ClaimService) ListRecords(ctx context.Context, actor models.ActorView, validOnly bool) ([]models.SuaDetail, error) {
	if !actor.HasStudent() {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "account has no student record")
	}
	records, err := s.suas.ListByStudent(ctx, *actor.StudentID, validOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list records")
	}
	return records, nil
}

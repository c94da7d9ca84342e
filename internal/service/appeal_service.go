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

type appealRepository interface {
	Create(ctx context.Context, appeal *models.Appeal) error
	FindByID(ctx context.Context, id string) (*models.AppealDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.AppealDetail, error)
	ListUnchecked(ctx context.Context) ([]models.AppealDetail, error)
	Resolve(ctx context.Context, appealID string, approve bool, feedback string, now time.Time) (*repository.ResolveOutcome, error)
}

type appealPublicityRepository interface {
	FindByID(ctx context.Context, id string) (*models.PublicityDetail, error)
}

// AppealService handles roster objections: student submission against a
// publicity window and staff resolution.
type AppealService struct {
	appeals     appealRepository
	publicities appealPublicityRepository
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAppealService constructs an AppealService.
func NewAppealService(appeals appealRepository, publicities appealPublicityRepository, validate *validator.Validate, logger *zap.Logger) *AppealService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AppealService{
		appeals:     appeals,
		publicities: publicities,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Submit records a student's objection. Appeals are accepted through the
// window's end instant inclusive; one second past it is a closed window.
func (s *AppealService) Submit(ctx context.Context, actor models.ActorView, req models.SubmitAppealRequest) (*models.AppealDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appeal payload")
	}
	if !actor.HasStudent() {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "only students can submit appeals")
	}

	publicity, err := s.publicities.FindByID(ctx, req.PublicityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "publicity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load publicity")
	}

	now := s.now()
	if !publicity.IsAppealable(now) {
		return nil, appErrors.Clone(appErrors.ErrWindowClosed, "")
	}

	appeal := &models.Appeal{
		StudentID:   *actor.StudentID,
		PublicityID: req.PublicityID,
		Date:        now,
		Content:     req.Content,
		IsChecked:   false,
		Status:      models.StatusPending,
	}
	if err := s.appeals.Create(ctx, appeal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record appeal")
	}

	s.logger.Info("appeal submitted",
		zap.String("appeal_id", appeal.ID),
		zap.String("student_id", appeal.StudentID),
		zap.String("publicity_id", appeal.PublicityID))

	detail, err := s.appeals.FindByID(ctx, appeal.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appeal")
	}
	return detail, nil
}

// Resolve applies a staff verdict exactly once. An approved appeal validates
// the student's record for the contested activity and refreshes their
// aggregate.
func (s *AppealService) Resolve(ctx context.Context, actor models.ActorView, appealID string, req models.ReviewRequest) (*models.AppealDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolution payload")
	}
	if !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can resolve appeals")
	}

	outcome, err := s.appeals.Resolve(ctx, appealID, *req.Approve, req.Feedback, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyChecked):
			return nil, appErrors.Clone(appErrors.ErrAlreadyResolved, "")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appeal not found")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve appeal")
		}
	}

	s.logger.Info("appeal resolved",
		zap.String("appeal_id", appealID),
		zap.String("resolver_id", actor.UserID),
		zap.Bool("approved", *req.Approve),
		zap.Bool("sua_validated", outcome.SuaValidated),
		zap.Float64("total_hours", outcome.TotalHours))

	detail, err := s.appeals.FindByID(ctx, appealID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resolved appeal")
	}
	return detail, nil
}

// Get returns one appeal. Students only see their own.
func (s *AppealService) Get(ctx context.Context, actor models.ActorView, id string) (*models.AppealDetail, error) {
	detail, err := s.appeals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appeal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appeal")
	}
	if !actor.IsStaff() && (!actor.HasStudent() || detail.StudentID != *actor.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "appeal belongs to another student")
	}
	return detail, nil
}

// List returns appeals: the unchecked queue for staff, the actor's own
// history for students.
func (s *AppealService) List(ctx context.Context, actor models.ActorView) ([]models.AppealDetail, error) {
	if actor.IsStaff() {
		details, err := s.appeals.ListUnchecked(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appeals")
		}
		return details, nil
	}
	if !actor.HasStudent() {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "account has no student record")
	}
	details, err := s.appeals.ListByStudent(ctx, *actor.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appeals")
	}
	return details, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dedekind-labs/sua-api/internal/models"
	"github.com/dedekind-labs/sua-api/pkg/config"
	appErrors "github.com/dedekind-labs/sua-api/pkg/errors"
)

type publicityRepository interface {
	Create(ctx context.Context, publicity *models.Publicity) error
	FindByID(ctx context.Context, id string) (*models.PublicityDetail, error)
	ListActive(ctx context.Context, now time.Time) ([]models.PublicityDetail, error)
	List(ctx context.Context, page, size int) ([]models.PublicityDetail, int, error)
	Update(ctx context.Context, publicity *models.Publicity) error
}

type publicityActivityRepository interface {
	FindByID(ctx context.Context, id string) (*models.Activity, error)
}

type rosterRepository interface {
	RosterRows(ctx context.Context, activityID string) ([]models.RosterRow, error)
}

type publicityCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const activePublicityKeyPrefix = "publicity:active:"

// PublicityService manages roster posting windows and the derived roster
// view. Active listings are memoized per minute; the cache is advisory and
// visibility decisions never depend on it.
type PublicityService struct {
	publicities publicityRepository
	activities  publicityActivityRepository
	rosters     rosterRepository
	cache       publicityCache
	cfg         config.PublicityConfig
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewPublicityService constructs a PublicityService.
func NewPublicityService(publicities publicityRepository, activities publicityActivityRepository, rosters rosterRepository, cache publicityCache, cfg config.PublicityConfig, validate *validator.Validate, logger *zap.Logger) *PublicityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PublicityService{
		publicities: publicities,
		activities:  activities,
		rosters:     rosters,
		cache:       cache,
		cfg:         cfg,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Open creates a posting window for an activity roster.
func (s *PublicityService) Open(ctx context.Context, actor models.ActorView, req models.CreatePublicityRequest) (*models.PublicityDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publicity payload")
	}
	if !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can open publicities")
	}
	if !req.End.After(req.Begin) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "window end must be after begin")
	}
	if _, err := s.activities.FindByID(ctx, req.ActivityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}

	publicity := &models.Publicity{
		ActivityID:  req.ActivityID,
		Title:       req.Title,
		Content:     req.Content,
		Contact:     req.Contact,
		IsPublished: req.IsPublished,
		Begin:       req.Begin.UTC(),
		End:         req.End.UTC(),
	}
	if err := s.publicities.Create(ctx, publicity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create publicity")
	}

	s.invalidateActive(ctx)
	s.logger.Info("publicity opened",
		zap.String("publicity_id", publicity.ID),
		zap.String("activity_id", publicity.ActivityID),
		zap.Time("begin", publicity.Begin),
		zap.Time("end", publicity.End))

	return s.Get(ctx, publicity.ID)
}

// Update edits an existing posting window.
func (s *PublicityService) Update(ctx context.Context, actor models.ActorView, id string, req models.CreatePublicityRequest) (*models.PublicityDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publicity payload")
	}
	if !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can edit publicities")
	}
	if !req.End.After(req.Begin) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "window end must be after begin")
	}

	existing, err := s.publicities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "publicity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load publicity")
	}

	updated := existing.Publicity
	updated.Title = req.Title
	updated.Content = req.Content
	updated.Contact = req.Contact
	updated.IsPublished = req.IsPublished
	updated.Begin = req.Begin.UTC()
	updated.End = req.End.UTC()

	if err := s.publicities.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update publicity")
	}

	s.invalidateActive(ctx)
	return s.Get(ctx, id)
}

// Get returns a single publicity with its activity context.
func (s *PublicityService) Get(ctx context.Context, id string) (*models.PublicityDetail, error) {
	detail, err := s.publicities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "publicity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load publicity")
	}
	return detail, nil
}

// List returns all publicities for staff administration.
func (s *PublicityService) List(ctx context.Context, page, size int) ([]models.PublicityDetail, int, error) {
	details, total, err := s.publicities.List(ctx, page, size)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list publicities")
	}
	return details, total, nil
}

// Active returns the publicities whose window contains the current instant.
// Results are memoized under a minute-truncated key, so a cached answer is
// never staler than the minute boundary it was computed in.
func (s *PublicityService) Active(ctx context.Context) ([]models.PublicityDetail, error) {
	now := s.now()

	var key string
	if s.cache != nil && s.cfg.CacheEnabled {
		key = fmt.Sprintf("%s%d", activePublicityKeyPrefix, now.Truncate(time.Minute).Unix())
		var cached []models.PublicityDetail
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("active publicity cache read failed", zap.Error(err))
		}
	}

	details, err := s.publicities.ListActive(ctx, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active publicities")
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, details, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("active publicity cache write failed", zap.Error(err))
		}
	}
	return details, nil
}

// Roster returns the grouped roster for a publicity. Students only see it
// while the window is active; staff can inspect it at any time.
func (s *PublicityService) Roster(ctx context.Context, actor models.ActorView, publicityID string) ([]models.RosterTeam, error) {
	detail, err := s.Get(ctx, publicityID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !detail.IsActive(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "publicity window is not active")
	}

	rows, err := s.rosters.RosterRows(ctx, detail.ActivityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return models.BuildRoster(rows), nil
}

func (s *PublicityService) invalidateActive(ctx context.Context) {
	if s.cache == nil || !s.cfg.CacheEnabled {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, activePublicityKeyPrefix+"*"); err != nil {
		s.logger.Warn("active publicity cache invalidation failed", zap.Error(err))
	}
}

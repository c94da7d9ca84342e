package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dedekind-labs/sua-api/internal/models"
	"github.com/dedekind-labs/sua-api/internal/repository"
	appErrors "github.com/dedekind-labs/sua-api/pkg/errors"
	"github.com/dedekind-labs/sua-api/pkg/export"
	"github.com/dedekind-labs/sua-api/pkg/jobs"
	"github.com/dedekind-labs/sua-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type exportPublicityRepository interface {
	FindByID(ctx context.Context, id string) (*models.PublicityDetail, error)
}

type exportRosterRepository interface {
	RosterRows(ctx context.Context, activityID string) ([]models.RosterRow, error)
}

// ExportConfig tunes roster export behaviour.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	MaxRetries      int
}

// RosterDownload aggregates resolved download data.
type RosterDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportService runs the asynchronous roster export pipeline: jobs are
// persisted, processed by queue workers, and fetched back through signed,
// expiring download tokens.
type ExportService struct {
	store       exportJobStore
	publicities exportPublicityRepository
	rosters     exportRosterRepository
	storage     exportFileStorage
	signer      *storage.SignedURLSigner
	queue       jobDispatcher
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ExportConfig
}

// NewExportService constructs an ExportService. The queue is attached later
// via SetQueue because the queue handler is this service's Handle method.
func NewExportService(store exportJobStore, publicities exportPublicityRepository, rosters exportRosterRepository, fileStore exportFileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &ExportService{
		store:       store,
		publicities: publicities,
		rosters:     rosters,
		storage:     fileStore,
		signer:      signer,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// SetQueue attaches the dispatcher once the queue has been built around
// Handle.
func (s *ExportService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob validates the request, persists the job, and enqueues
// processing.
func (s *ExportService) CreateJob(ctx context.Context, actor models.ActorView, req models.ExportRosterRequest) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can export rosters")
	}
	if _, err := s.publicities.FindByID(ctx, req.PublicityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "publicity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load publicity")
	}

	job := &models.ExportJob{
		PublicityID: req.PublicityID,
		Format:      req.Format,
		Status:      models.ExportStatusQueued,
		Progress:    0,
		CreatedBy:   actor.UserID,
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.enqueue(job.ID); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_ = s.store.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

func (s *ExportService) enqueue(jobID string) error {
	if s.queue == nil {
		return fmt.Errorf("export queue not attached")
	}
	return s.queue.Enqueue(jobs.Job{ID: jobID, Type: "roster_export"})
}

// GetStatus exposes job metadata to its creator; superadmins see every job.
func (s *ExportService) GetStatus(ctx context.Context, actor models.ActorView, id string) (*models.ExportJob, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if actor.Role != models.RoleSuperAdmin && job.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export job belongs to another user")
	}
	return job, nil
}

// ResolveDownload validates a token and opens the stored export file. The
// token itself is the credential; no session is required.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*RosterDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &RosterDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// Handle processes one queued job. It is the handler the export queue is
// built around.
func (s *ExportService) Handle(ctx context.Context, job jobs.Job) error {
	record, err := s.store.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}

	processing := models.ExportStatusProcessing
	progress := 10
	if err := s.store.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}

	resultURL, genErr := s.generate(ctx, record)
	if genErr != nil {
		msg := genErr.Error()
		now := time.Now().UTC()
		if job.Attempt >= s.cfg.MaxRetries {
			failed := models.ExportStatusFailed
			progress = 100
			if updateErr := s.store.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				s.logger.Warn("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		} else {
			queued := models.ExportStatusQueued
			reset := 0
			if updateErr := s.store.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		}
		return genErr
	}

	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	clear := ""
	if err := s.store.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &resultURL,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark export job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	return nil
}

// generate renders the roster for the job's publicity, saves the file, and
// returns the signed download URL.
func (s *ExportService) generate(ctx context.Context, job *models.ExportJob) (string, error) {
	publicity, err := s.publicities.FindByID(ctx, job.PublicityID)
	if err != nil {
		return "", fmt.Errorf("load publicity: %w", err)
	}
	rows, err := s.rosters.RosterRows(ctx, publicity.ActivityID)
	if err != nil {
		return "", fmt.Errorf("load roster: %w", err)
	}

	dataset := export.Dataset{Headers: []string{"Team", "Hours", "Student"}}
	for _, team := range models.BuildRoster(rows) {
		for _, group := range team.Groups {
			for _, name := range group.Names {
				dataset.Rows = append(dataset.Rows, map[string]string{
					"Team":    team.Team,
					"Hours":   fmt.Sprintf("%.1f", group.Hours),
					"Student": name,
				})
			}
		}
	}

	var payload []byte
	title := fmt.Sprintf("Roster %s", publicity.ActivityTitle)
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("roster_%s_%s.%s",
		sanitizeFilename(publicity.ActivityTitle),
		time.Now().UTC().Format("20060102_150405"),
		job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return "", err
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return "", err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/exports/download/%s", prefix, token), nil
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *ExportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.store.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.enqueue(job.ID); err != nil {
			s.logger.Warn("failed to requeue pending export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ExportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	for {
		batch, err := s.store.ListFinishedBefore(ctx, cutoff, 100)
		if err != nil {
			s.logger.Warn("export cleanup list failed", zap.Error(err))
			return
		}
		if len(batch) == 0 {
			break
		}
		for _, job := range batch {
			if job.ResultURL == nil {
				continue
			}
			token := extractToken(*job.ResultURL)
			if token == "" {
				continue
			}
			_, relPath, _, err := s.signer.Parse(token, true)
			if err != nil {
				continue
			}
			if err := s.storage.Delete(relPath); err != nil {
				s.logger.Warn("export cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
		if len(batch) < 100 {
			break
		}
	}
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("export filesystem cleanup failed", zap.Error(err))
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedekind-labs/sua-api/internal/models"
)

func TestExportJobCreateDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectExec("INSERT INTO export_jobs").WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ExportJob{PublicityID: "pub1", Format: models.ExportFormatCSV, CreatedBy: "u1"}
	err := repo.Create(context.Background(), job)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	assert.False(t, job.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobUpdatePartial(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	status := models.ExportStatusProcessing
	progress := 10
	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET status = $1, progress = $2 WHERE id = $3")).
		WithArgs(status, progress, "job1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job1", UpdateExportJobParams{Status: &status, Progress: &progress})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobUpdateNoFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	err := repo.Update(context.Background(), "job1", UpdateExportJobParams{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFinishedBefore(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)
	cutoff := time.Now().Add(-time.Hour)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "publicity_id", "format", "status", "progress", "result_url", "error_message", "created_by", "created_at", "finished_at"}).
		AddRow("job1", "pub1", string(models.ExportFormatCSV), string(models.ExportStatusFinished), 100, "/api/v1/exports/download/tok", nil, "u1", now.Add(-2*time.Hour), now.Add(-90*time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $2")).
		WithArgs(50, cutoff).
		WillReturnRows(rows)

	jobs, err := repo.ListFinishedBefore(context.Background(), cutoff, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.ExportStatusFinished, jobs[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

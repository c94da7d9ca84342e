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

func TestResolveApprove(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppealRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE appeals SET is_checked = TRUE")).
		WithArgs("ap1", string(models.StatusApproved), "records confirmed", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ap.student_id, p.activity_id FROM appeals ap")).
		WithArgs("ap1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "activity_id"}).AddRow("st1", "act1"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE suas SET is_valid = TRUE, last_time_sua_hours = sua_hours")).
		WithArgs("st1", "act1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE students").
		WithArgs("st1", now).
		WillReturnRows(sqlmock.NewRows([]string{"sua_hours"}).AddRow(10.0))
	mock.ExpectCommit()

	outcome, err := repo.Resolve(context.Background(), "ap1", true, "records confirmed", now)
	require.NoError(t, err)
	assert.True(t, outcome.SuaValidated)
	assert.Equal(t, 10.0, outcome.TotalHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveApproveWithoutMatchingSua(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppealRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE appeals SET is_checked = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ap.student_id, p.activity_id FROM appeals ap")).
		WithArgs("ap1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "activity_id"}).AddRow("st1", "act1"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE suas SET is_valid = TRUE, last_time_sua_hours = sua_hours")).
		WithArgs("st1", "act1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE students").
		WithArgs("st1", now).
		WillReturnRows(sqlmock.NewRows([]string{"sua_hours"}).AddRow(6.0))
	mock.ExpectCommit()

	outcome, err := repo.Resolve(context.Background(), "ap1", true, "", now)
	require.NoError(t, err)
	assert.False(t, outcome.SuaValidated)
	assert.Equal(t, 6.0, outcome.TotalHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveAlreadyChecked(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAppealRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE appeals SET is_checked = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT is_checked FROM appeals WHERE id = $1")).
		WithArgs("ap1").
		WillReturnRows(sqlmock.NewRows([]string{"is_checked"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Resolve(context.Background(), "ap1", false, "", now)
	assert.ErrorIs(t, err, ErrAlreadyChecked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

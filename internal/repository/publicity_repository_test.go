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

func publicityRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "activity_id", "title", "content", "contact", "is_published", "begin_at", "end_at", "created_at", "updated_at",
		"activity_title", "activity_group", "activity_date",
	}).AddRow("pub1", "act1", "March roster", "", "", true, now.Add(-time.Hour), now.Add(time.Hour), now, now,
		"Beach Cleanup", "Garden", now.Add(-48*time.Hour))
}

func TestPublicityFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPublicityRepository(db)
	now := time.Now()

	mock.ExpectQuery("FROM publicities p JOIN activities a").
		WithArgs("pub1").
		WillReturnRows(publicityRows(now))

	detail, err := repo.FindByID(context.Background(), "pub1")
	require.NoError(t, err)
	assert.Equal(t, "Beach Cleanup", detail.ActivityTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicityListActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPublicityRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("p.begin_at <= $1 AND p.end_at > $1")).
		WithArgs(now).
		WillReturnRows(publicityRows(now))

	details, err := repo.ListActive(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.True(t, details[0].IsActive(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicityCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPublicityRepository(db)

	mock.ExpectExec("INSERT INTO publicities").WillReturnResult(sqlmock.NewResult(1, 1))

	p := &models.Publicity{ActivityID: "act1", Title: "March roster", Begin: time.Now(), End: time.Now().Add(72 * time.Hour), IsPublished: true}
	err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

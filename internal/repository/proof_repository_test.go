package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateOffline(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProofRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO proofs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM proofs WHERE is_offline = TRUE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_user_id", "date", "is_offline", "file_path", "created_at"}).
			AddRow("pr-off", nil, now, true, "", now))

	proof, err := repo.FindOrCreateOffline(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "pr-off", proof.ID)
	assert.True(t, proof.IsOffline)
	assert.Nil(t, proof.OwnerUserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

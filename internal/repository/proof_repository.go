package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dedekind-labs/sua-api/internal/models"
)

// ProofRepository manages evidence records, including the shared offline
// proof singleton.
type ProofRepository struct {
	db *sqlx.DB
}

// NewProofRepository constructs a ProofRepository.
func NewProofRepository(db *sqlx.DB) *ProofRepository {
	return &ProofRepository{db: db}
}

// Create inserts an uploaded-evidence proof owned by the submitting user.
func (r *ProofRepository) Create(ctx context.Context, proof *models.Proof) error {
	if proof.ID == "" {
		proof.ID = uuid.NewString()
	}
	if proof.CreatedAt.IsZero() {
		proof.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO proofs (id, owner_user_id, date, is_offline, file_path, created_at)
        VALUES (:id, :owner_user_id, :date, :is_offline, :file_path, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, proof); err != nil {
		return fmt.Errorf("create proof: %w", err)
	}
	return nil
}

// FindOrCreateOffline returns the shared offline proof, creating it if it
// does not exist yet. The insert relies on the partial unique index on
// is_offline, so concurrent first-use submissions race safely: at most one
// row ever exists, and losers fall through to the select.
func (r *ProofRepository) FindOrCreateOffline(ctx context.Context, now time.Time) (*models.Proof, error) {
	const insert = `INSERT INTO proofs (id, owner_user_id, date, is_offline, file_path, created_at)
        VALUES ($1, NULL, $2, TRUE, '', $2)
        ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), now); err != nil {
		return nil, fmt.Errorf("ensure offline proof: %w", err)
	}

	const query = `SELECT id, owner_user_id, date, is_offline, file_path, created_at
        FROM proofs WHERE is_offline = TRUE`
	var proof models.Proof
	if err := r.db.GetContext(ctx, &proof, query); err != nil {
		return nil, fmt.Errorf("load offline proof: %w", err)
	}
	return &proof, nil
}

// FindByID fetches a proof by ID.
func (r *ProofRepository) FindByID(ctx context.Context, id string) (*models.Proof, error) {
	const query = `SELECT id, owner_user_id, date, is_offline, file_path, created_at
        FROM proofs WHERE id = $1`
	var proof models.Proof
	if err := r.db.GetContext(ctx, &proof, query, id); err != nil {
		return nil, err
	}
	return &proof, nil
}

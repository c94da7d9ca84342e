package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dedekind-labs/sua-api/internal/models"
)

// PublicityRepository manages roster publicity windows.
type PublicityRepository struct {
	db *sqlx.DB
}

// NewPublicityRepository constructs a PublicityRepository.
func NewPublicityRepository(db *sqlx.DB) *PublicityRepository {
	return &PublicityRepository{db: db}
}

const publicityDetailColumns = `p.id, p.activity_id, p.title, p.content, p.contact, p.is_published, p.begin_at, p.end_at, p.created_at, p.updated_at,
        a.title AS activity_title, a.group_name AS activity_group, a.date AS activity_date`

// Create inserts a publicity window.
func (r *PublicityRepository) Create(ctx context.Context, publicity *models.Publicity) error {
	if publicity.ID == "" {
		publicity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	publicity.CreatedAt, publicity.UpdatedAt = now, now
	const query = `INSERT INTO publicities (id, activity_id, title, content, contact, is_published, begin_at, end_at, created_at, updated_at)
        VALUES (:id, :activity_id, :title, :content, :contact, :is_published, :begin_at, :end_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, publicity); err != nil {
		return fmt.Errorf("create publicity: %w", err)
	}
	return nil
}

// FindByID fetches a publicity with its activity context.
func (r *PublicityRepository) FindByID(ctx context.Context, id string) (*models.PublicityDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM publicities p JOIN activities a ON a.id = p.activity_id WHERE p.id = $1`, publicityDetailColumns)
	var detail models.PublicityDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListActive returns publicities visible at the given instant. The window is
// half-open: begin <= now < end.
func (r *PublicityRepository) ListActive(ctx context.Context, now time.Time) ([]models.PublicityDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM publicities p JOIN activities a ON a.id = p.activity_id
        WHERE p.is_published = TRUE AND p.begin_at <= $1 AND p.end_at > $1
        ORDER BY p.begin_at DESC`, publicityDetailColumns)
	var details []models.PublicityDetail
	if err := r.db.SelectContext(ctx, &details, query, now); err != nil {
		return nil, fmt.Errorf("list active publicities: %w", err)
	}
	return details, nil
}

// List returns all publicities newest first.
func (r *PublicityRepository) List(ctx context.Context, page, size int) ([]models.PublicityDetail, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM publicities p JOIN activities a ON a.id = p.activity_id
        ORDER BY p.begin_at DESC LIMIT %d OFFSET %d`, publicityDetailColumns, size, offset)
	var details []models.PublicityDetail
	if err := r.db.SelectContext(ctx, &details, query); err != nil {
		return nil, 0, fmt.Errorf("list publicities: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM publicities"); err != nil {
		return nil, 0, fmt.Errorf("count publicities: %w", err)
	}
	return details, total, nil
}

// Update modifies window fields and the publish flag.
func (r *PublicityRepository) Update(ctx context.Context, publicity *models.Publicity) error {
	publicity.UpdatedAt = time.Now().UTC()
	const query = `UPDATE publicities SET title = :title, content = :content, contact = :contact, is_published = :is_published, begin_at = :begin_at, end_at = :end_at, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, publicity); err != nil {
		return fmt.Errorf("update publicity: %w", err)
	}
	return nil
}

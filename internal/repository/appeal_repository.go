package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dedekind-labs/sua-api/internal/models"
)

// AppealRepository persists roster appeals. Resolution mirrors claim review:
// compare-and-set on is_checked, with Sua revalidation and aggregate
// recomputation in the same transaction when approved.
type AppealRepository struct {
	db *sqlx.DB
}

// NewAppealRepository constructs an AppealRepository.
func NewAppealRepository(db *sqlx.DB) *AppealRepository {
	return &AppealRepository{db: db}
}

// Create inserts an appeal.
func (r *AppealRepository) Create(ctx context.Context, appeal *models.Appeal) error {
	if appeal.ID == "" {
		appeal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	appeal.CreatedAt, appeal.UpdatedAt = now, now
	const query = `INSERT INTO appeals (id, student_id, publicity_id, date, content, is_checked, status, feedback, created_at, updated_at)
        VALUES (:id, :student_id, :publicity_id, :date, :content, :is_checked, :status, :feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, appeal); err != nil {
		return fmt.Errorf("create appeal: %w", err)
	}
	return nil
}

const appealDetailColumns = `ap.id, ap.student_id, ap.publicity_id, ap.date, ap.content, ap.is_checked, ap.status, ap.feedback, ap.created_at, ap.updated_at,
        st.name AS student_name, p.activity_id, a.title AS activity_title`

const appealDetailJoins = `FROM appeals ap
        JOIN students st ON st.id = ap.student_id
        JOIN publicities p ON p.id = ap.publicity_id
        JOIN activities a ON a.id = p.activity_id`

// FindByID fetches an appeal with its publicity context.
func (r *AppealRepository) FindByID(ctx context.Context, id string) (*models.AppealDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE ap.id = $1", appealDetailColumns, appealDetailJoins)
	var detail models.AppealDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByStudent returns a student's appeals newest first.
func (r *AppealRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AppealDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE ap.student_id = $1 ORDER BY ap.date DESC", appealDetailColumns, appealDetailJoins)
	var details []models.AppealDetail
	if err := r.db.SelectContext(ctx, &details, query, studentID); err != nil {
		return nil, fmt.Errorf("list appeals: %w", err)
	}
	return details, nil
}

// ListUnchecked returns the staff resolution queue, oldest first.
func (r *AppealRepository) ListUnchecked(ctx context.Context) ([]models.AppealDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE ap.is_checked = FALSE ORDER BY ap.date ASC", appealDetailColumns, appealDetailJoins)
	var details []models.AppealDetail
	if err := r.db.SelectContext(ctx, &details, query); err != nil {
		return nil, fmt.Errorf("list unchecked appeals: %w", err)
	}
	return details, nil
}

// ResolveOutcome reports what a committed resolution changed.
type ResolveOutcome struct {
	StudentID    string
	ActivityID   string
	SuaValidated bool
	TotalHours   float64
}

// Resolve atomically checks an appeal. A second resolution attempt loses the
// compare-and-set and surfaces ErrAlreadyChecked. On approval the Sua the
// appeal refers to (by the appeal's student and the publicity's activity) is
// validated and the student aggregate recomputed, in the same transaction.
func (r *AppealRepository) Resolve(ctx context.Context, appealID string, approve bool, feedback string, now time.Time) (*ResolveOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin resolve: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	status := models.StatusRejected
	if approve {
		status = models.StatusApproved
	}

	const cas = `UPDATE appeals SET is_checked = TRUE, status = $2, feedback = $3, updated_at = $4
        WHERE id = $1 AND is_checked = FALSE`
	res, err := tx.ExecContext(ctx, cas, appealID, status, feedback, now)
	if err != nil {
		return nil, fmt.Errorf("check appeal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check appeal result: %w", err)
	}
	if affected == 0 {
		var checked bool
		if err := tx.GetContext(ctx, &checked, "SELECT is_checked FROM appeals WHERE id = $1", appealID); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyChecked
	}

	var scope struct {
		StudentID  string `db:"student_id"`
		ActivityID string `db:"activity_id"`
	}
	const load = `SELECT ap.student_id, p.activity_id FROM appeals ap JOIN publicities p ON p.id = ap.publicity_id WHERE ap.id = $1`
	if err := tx.GetContext(ctx, &scope, load, appealID); err != nil {
		return nil, fmt.Errorf("load appeal scope: %w", err)
	}

	outcome := &ResolveOutcome{StudentID: scope.StudentID, ActivityID: scope.ActivityID}

	if approve {
		const validate = `UPDATE suas SET is_valid = TRUE, last_time_sua_hours = sua_hours, updated_at = $3
            WHERE student_id = $1 AND activity_id = $2`
		res, err := tx.ExecContext(ctx, validate, scope.StudentID, scope.ActivityID, now)
		if err != nil {
			return nil, fmt.Errorf("revalidate sua: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			outcome.SuaValidated = true
		}
		total, err := recomputeStudentHours(ctx, tx, scope.StudentID, now)
		if err != nil {
			return nil, err
		}
		outcome.TotalHours = total
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit resolve: %w", err)
	}
	return outcome, nil
}

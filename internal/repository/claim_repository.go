package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dedekind-labs/sua-api/internal/models"
)

// ErrAlreadyChecked is returned when a compare-and-set on a checked flag
// finds the row already reviewed or resolved.
var ErrAlreadyChecked = errors.New("already checked")

// ClaimRepository persists service-hour claims: the Sua record together with
// its submission Application. Review is an atomic read-modify-write
// transaction guarded by a compare-and-set on is_checked.
type ClaimRepository struct {
	db *sqlx.DB
}

// NewClaimRepository constructs a ClaimRepository.
func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// CreateSubmission inserts the Sua and its Application in one transaction.
func (r *ClaimRepository) CreateSubmission(ctx context.Context, sua *models.Sua, app *models.Application) error {
	now := time.Now().UTC()
	if sua.ID == "" {
		sua.ID = uuid.NewString()
	}
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	app.SuaID = sua.ID
	sua.CreatedAt, sua.UpdatedAt = now, now
	app.CreatedAt, app.UpdatedAt = now, now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submission: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const suaQuery = `INSERT INTO suas (id, student_id, activity_id, team, sua_hours, is_valid, last_time_sua_hours, date, created_at, updated_at)
        VALUES (:id, :student_id, :activity_id, :team, :sua_hours, :is_valid, :last_time_sua_hours, :date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, suaQuery, sua); err != nil {
		return fmt.Errorf("create sua: %w", err)
	}

	const appQuery = `INSERT INTO applications (id, sua_id, proof_id, date, contact, is_checked, status, feedback, created_at, updated_at)
        VALUES (:id, :sua_id, :proof_id, :date, :contact, :is_checked, :status, :feedback, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, appQuery, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submission: %w", err)
	}
	return nil
}

const applicationDetailColumns = `a.id, a.sua_id, a.proof_id, a.date, a.contact, a.is_checked, a.status, a.feedback, a.created_at, a.updated_at,
        s.student_id, st.name AS student_name, s.activity_id, act.title AS activity_title, s.team, s.sua_hours`

const applicationDetailJoins = `FROM applications a
        JOIN suas s ON s.id = a.sua_id
        JOIN students st ON st.id = s.student_id
        JOIN activities act ON act.id = s.activity_id`

// FindApplicationByID fetches an application with its claim context.
func (r *ClaimRepository) FindApplicationByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE a.id = $1", applicationDetailColumns, applicationDetailJoins)
	var detail models.ApplicationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListApplications returns applications newest first.
func (r *ClaimRepository) ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("s.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Checked != nil {
		conditions = append(conditions, fmt.Sprintf("a.is_checked = $%d", len(args)+1))
		args = append(args, *filter.Checked)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	where := fmt.Sprintf("WHERE %s", joinConditions(conditions))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s %s ORDER BY a.date DESC LIMIT %d OFFSET %d",
		applicationDetailColumns, applicationDetailJoins, where, size, offset)
	var details []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s %s", applicationDetailJoins, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return details, total, nil
}

// ReviewOutcome reports what a committed review changed.
type ReviewOutcome struct {
	SuaID      string
	StudentID  string
	TotalHours float64
}

// Review atomically checks an application. The UPDATE carries the
// compare-and-set (`is_checked = FALSE` in the predicate); a lost race
// surfaces as ErrAlreadyChecked, never as a silent second review. On
// approval the Sua is validated and the student's aggregate recomputed as
// the sum over valid records, all in the same transaction.
func (r *ClaimRepository) Review(ctx context.Context, applicationID string, approve bool, feedback string, now time.Time) (*ReviewOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin review: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	status := models.StatusRejected
	if approve {
		status = models.StatusApproved
	}

	const cas = `UPDATE applications SET is_checked = TRUE, status = $2, feedback = $3, updated_at = $4
        WHERE id = $1 AND is_checked = FALSE`
	res, err := tx.ExecContext(ctx, cas, applicationID, status, feedback, now)
	if err != nil {
		return nil, fmt.Errorf("check application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check application result: %w", err)
	}
	if affected == 0 {
		var checked bool
		if err := tx.GetContext(ctx, &checked, "SELECT is_checked FROM applications WHERE id = $1", applicationID); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyChecked
	}

	var claim struct {
		SuaID     string  `db:"id"`
		StudentID string  `db:"student_id"`
		SuaHours  float64 `db:"sua_hours"`
	}
	const load = `SELECT s.id, s.student_id, s.sua_hours FROM suas s JOIN applications a ON a.sua_id = s.id WHERE a.id = $1`
	if err := tx.GetContext(ctx, &claim, load, applicationID); err != nil {
		return nil, fmt.Errorf("load reviewed claim: %w", err)
	}

	outcome := &ReviewOutcome{SuaID: claim.SuaID, StudentID: claim.StudentID}

	if approve {
		const validate = `UPDATE suas SET is_valid = TRUE, last_time_sua_hours = sua_hours, updated_at = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, validate, claim.SuaID, now); err != nil {
			return nil, fmt.Errorf("validate sua: %w", err)
		}
		total, err := recomputeStudentHours(ctx, tx, claim.StudentID, now)
		if err != nil {
			return nil, err
		}
		outcome.TotalHours = total
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit review: %w", err)
	}
	return outcome, nil
}

// recomputeStudentHours refreshes the cached aggregate inside the caller's
// transaction and returns the new total.
func recomputeStudentHours(ctx context.Context, tx *sqlx.Tx, studentID string, now time.Time) (float64, error) {
	const query = `UPDATE students
        SET sua_hours = COALESCE((SELECT SUM(sua_hours) FROM suas WHERE student_id = $1 AND is_valid = TRUE), 0), updated_at = $2
        WHERE id = $1
        RETURNING sua_hours`
	var total float64
	if err := tx.GetContext(ctx, &total, query, studentID, now); err != nil {
		if isNoRows(err) {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("recompute student hours: %w", err)
	}
	return total, nil
}

func joinConditions(conditions []string) string {
	out := conditions[0]
	for _, c := range conditions[1:] {
		out += " AND " + c
	}
	return out
}

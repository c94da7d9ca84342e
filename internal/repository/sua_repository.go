package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dedekind-labs/sua-api/internal/models"
)

// SuaRepository reads service-hour records for listings, rosters, and
// exports.
type SuaRepository struct {
	db *sqlx.DB
}

// NewSuaRepository constructs a SuaRepository.
func NewSuaRepository(db *sqlx.DB) *SuaRepository {
	return &SuaRepository{db: db}
}

// ListByStudent returns a student's records newest first. When validOnly is
// set, only validated records are returned (the transcript source).
func (r *SuaRepository) ListByStudent(ctx context.Context, studentID string, validOnly bool) ([]models.SuaDetail, error) {
	query := `SELECT s.id, s.student_id, s.activity_id, s.team, s.sua_hours, s.is_valid, s.last_time_sua_hours, s.date, s.created_at, s.updated_at,
        a.title AS activity_title, a.group_name AS activity_group, st.name AS student_name, st.number AS student_number
        FROM suas s
        JOIN activities a ON a.id = s.activity_id
        JOIN students st ON st.id = s.student_id
        WHERE s.student_id = $1`
	if validOnly {
		query += " AND s.is_valid = TRUE"
	}
	query += " ORDER BY s.date DESC"

	var suas []models.SuaDetail
	if err := r.db.SelectContext(ctx, &suas, query, studentID); err != nil {
		return nil, fmt.Errorf("list suas: %w", err)
	}
	return suas, nil
}

// RosterRows returns the roster lines for an activity, pre-ordered by team,
// hours, then student name ascending.
func (r *SuaRepository) RosterRows(ctx context.Context, activityID string) ([]models.RosterRow, error) {
	const query = `SELECT s.team, s.sua_hours, st.name AS student_name
        FROM suas s
        JOIN students st ON st.id = s.student_id
        WHERE s.activity_id = $1
        ORDER BY s.team ASC, s.sua_hours ASC, st.name ASC`
	var rows []models.RosterRow
	if err := r.db.SelectContext(ctx, &rows, query, activityID); err != nil {
		return nil, fmt.Errorf("roster rows: %w", err)
	}
	return rows, nil
}

// FindByStudentActivity fetches the record a (student, activity) pair owns.
func (r *SuaRepository) FindByStudentActivity(ctx context.Context, studentID, activityID string) (*models.Sua, error) {
	const query = `SELECT id, student_id, activity_id, team, sua_hours, is_valid, last_time_sua_hours, date, created_at, updated_at
        FROM suas WHERE student_id = $1 AND activity_id = $2`
	var sua models.Sua
	if err := r.db.GetContext(ctx, &sua, query, studentID, activityID); err != nil {
		return nil, err
	}
	return &sua, nil
}

package models

import "time"

// Publicity is a time-windowed public posting of an activity's roster.
type Publicity struct {
	ID          string    `db:"id" json:"id"`
	ActivityID  string    `db:"activity_id" json:"activity_id"`
	Title       string    `db:"title" json:"title"`
	Content     string    `db:"content" json:"content"`
	Contact     string    `db:"contact" json:"contact"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	Begin       time.Time `db:"begin_at" json:"begin"`
	End         time.Time `db:"end_at" json:"end"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the roster is visible at the given instant.
// The window is half-open: [begin, end).
func (p *Publicity) IsActive(now time.Time) bool {
	return p.IsPublished && !now.Before(p.Begin) && now.Before(p.End)
}

// IsAppealable reports whether appeals are still accepted at the given
// instant. Unlike visibility, the window end is inclusive here.
func (p *Publicity) IsAppealable(now time.Time) bool {
	return !now.After(p.End)
}

// CreatePublicityRequest opens (or edits) a roster posting window.
type CreatePublicityRequest struct {
	ActivityID  string    `json:"activity_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Content     string    `json:"content"`
	Contact     string    `json:"contact"`
	IsPublished bool      `json:"is_published"`
	Begin       time.Time `json:"begin" validate:"required"`
	End         time.Time `json:"end" validate:"required"`
}

// SubmitAppealRequest is the student objection payload.
type SubmitAppealRequest struct {
	PublicityID string `json:"publicity_id" validate:"required"`
	Content     string `json:"content" validate:"required"`
}

// PublicityDetail joins the activity shown alongside the posting.
type PublicityDetail struct {
	Publicity
	ActivityTitle string    `db:"activity_title" json:"activity_title"`
	ActivityGroup string    `db:"activity_group" json:"activity_group"`
	ActivityDate  time.Time `db:"activity_date" json:"activity_date"`
}

// Appeal is a student's objection to their roster entry during a publicity
// window. Immutable once checked, except status and feedback.
type Appeal struct {
	ID          string      `db:"id" json:"id"`
	StudentID   string      `db:"student_id" json:"student_id"`
	PublicityID string      `db:"publicity_id" json:"publicity_id"`
	Date        time.Time   `db:"date" json:"date"`
	Content     string      `db:"content" json:"content"`
	IsChecked   bool        `db:"is_checked" json:"is_checked"`
	Status      ClaimStatus `db:"status" json:"status"`
	Feedback    string      `db:"feedback" json:"feedback"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// AppealDetail joins context for staff resolution listings.
type AppealDetail struct {
	Appeal
	StudentName   string `db:"student_name" json:"student_name"`
	ActivityID    string `db:"activity_id" json:"activity_id"`
	ActivityTitle string `db:"activity_title" json:"activity_title"`
}

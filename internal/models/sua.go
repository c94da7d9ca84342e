package models

import "time"

// ClaimStatus tracks the review outcome of an application or appeal.
type ClaimStatus string

const (
	StatusPending  ClaimStatus = "PENDING"
	StatusApproved ClaimStatus = "APPROVED"
	StatusRejected ClaimStatus = "REJECTED"
)

// Sua is a single service-hour record: one student's hours for one activity.
// Created invalid; only staff review (or an approved appeal) validates it.
// An invalid Sua never contributes to the student's aggregate.
type Sua struct {
	ID               string    `db:"id" json:"id"`
	StudentID        string    `db:"student_id" json:"student_id"`
	ActivityID       string    `db:"activity_id" json:"activity_id"`
	Team             string    `db:"team" json:"team"`
	SuaHours         float64   `db:"sua_hours" json:"sua_hours"`
	IsValid          bool      `db:"is_valid" json:"is_valid"`
	LastTimeSuaHours float64   `db:"last_time_sua_hours" json:"last_time_sua_hours"`
	Date             time.Time `db:"date" json:"date"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// SuaDetail joins the activity context used by listings and exports.
type SuaDetail struct {
	Sua
	ActivityTitle string `db:"activity_title" json:"activity_title"`
	ActivityGroup string `db:"activity_group" json:"activity_group"`
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
}

// Application is the submission event for a Sua, one-to-one. Immutable once
// checked, except status and feedback.
type Application struct {
	ID        string      `db:"id" json:"id"`
	SuaID     string      `db:"sua_id" json:"sua_id"`
	ProofID   string      `db:"proof_id" json:"proof_id"`
	Date      time.Time   `db:"date" json:"date"`
	Contact   string      `db:"contact" json:"contact"`
	IsChecked bool        `db:"is_checked" json:"is_checked"`
	Status    ClaimStatus `db:"status" json:"status"`
	Feedback  string      `db:"feedback" json:"feedback"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// ApplicationDetail joins the owning Sua and its student for review listings.
type ApplicationDetail struct {
	Application
	StudentID     string  `db:"student_id" json:"student_id"`
	StudentName   string  `db:"student_name" json:"student_name"`
	ActivityID    string  `db:"activity_id" json:"activity_id"`
	ActivityTitle string  `db:"activity_title" json:"activity_title"`
	Team          string  `db:"team" json:"team"`
	SuaHours      float64 `db:"sua_hours" json:"sua_hours"`
}

// ApplicationFilter scopes review queue listings.
type ApplicationFilter struct {
	StudentID string
	Checked   *bool
	Status    ClaimStatus
	Page      int
	PageSize  int
}

// SubmitClaimRequest is the student submission payload. Offline claims share
// the singleton offline proof; online claims carry an uploaded file path.
type SubmitClaimRequest struct {
	ActivityID    string  `json:"activity_id" validate:"required"`
	Team          string  `json:"team" validate:"required"`
	SuaHours      float64 `json:"sua_hours" validate:"min=0"`
	Contact       string  `json:"contact" validate:"required"`
	Offline       bool    `json:"offline"`
	ProofFilePath string  `json:"proof_file_path,omitempty"`
}

// ReviewRequest is the staff verdict payload.
type ReviewRequest struct {
	Approve  *bool  `json:"approve" validate:"required"`
	Feedback string `json:"feedback"`
}

// Proof is evidence attached to an application: either an uploaded file
// reference or the shared offline singleton (at most one row with
// IsOffline=true, enforced by a partial unique index).
type Proof struct {
	ID          string    `db:"id" json:"id"`
	OwnerUserID *string   `db:"owner_user_id" json:"owner_user_id,omitempty"`
	Date        time.Time `db:"date" json:"date"`
	IsOffline   bool      `db:"is_offline" json:"is_offline"`
	FilePath    string    `db:"file_path" json:"file_path,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

package models

import "time"

// Student represents a learner tracked by the service-hour system. SuaHours
// is a cached aggregate: the sum of hours over the student's valid Sua
// records, recomputed whenever a record is validated.
type Student struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Number    string    `db:"number" json:"number"`
	SuaHours  float64   `db:"sua_hours" json:"sua_hours"`
	Grade     int       `db:"grade" json:"grade"`
	ClassType string    `db:"class_type" json:"class_type"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateStudentRequest enrolls a student together with their login account.
type CreateStudentRequest struct {
	Name      string `json:"name" validate:"required"`
	Number    string `json:"number" validate:"required"`
	Grade     int    `json:"grade" validate:"min=1"`
	ClassType string `json:"class_type"`
	Phone     string `json:"phone"`
	Username  string `json:"username" validate:"required,min=3"`
	Password  string `json:"password" validate:"required,min=8"`
}

// UpdateStudentRequest edits a student profile. The hour aggregate is not
// editable; it only moves through claim validation.
type UpdateStudentRequest struct {
	Name      string `json:"name" validate:"required"`
	Number    string `json:"number" validate:"required"`
	Grade     int    `json:"grade" validate:"min=1"`
	ClassType string `json:"class_type"`
	Phone     string `json:"phone"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Grade     *int
	ClassType string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

package models

import "time"

// Activity is a service event students record hours against. Claims may only
// be submitted against valid activities.
type Activity struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Date      time.Time `db:"date" json:"date"`
	Detail    string    `db:"detail" json:"detail"`
	GroupName string    `db:"group_name" json:"group_name"`
	IsValid   bool      `db:"is_valid" json:"is_valid"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ActivityRequest creates or edits a service activity.
type ActivityRequest struct {
	Title     string    `json:"title" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Detail    string    `json:"detail"`
	GroupName string    `json:"group_name" validate:"required"`
	IsValid   bool      `json:"is_valid"`
}

// ActivityFilter captures filtering criteria for listing activities.
type ActivityFilter struct {
	Search    string
	IsValid   *bool
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

package models

import "time"

// Subject represents an academic subject taught to a classroom.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

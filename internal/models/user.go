package models

import "time"

// UserRole represents the available roles.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// UserStatus mirrors the account approval workflow.
type UserStatus int

const (
	UserStatusPending  UserStatus = 0
	UserStatusApproved UserStatus = 1
	UserStatusRejected UserStatus = 2
)

// User represents an application user stored in the users table. Students
// carry a classroom reference; teachers and admins do not.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`
	ClassroomID  *string    `db:"classroom_id" json:"classroom_id,omitempty"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Approved reports whether the account passed the approval workflow.
func (u User) Approved() bool {
	return u.Status == UserStatusApproved
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

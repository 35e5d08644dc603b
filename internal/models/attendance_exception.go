package models

import "time"

// ExceptionStatus tracks the review state of an absence justification.
// Transitions are pending -> approved or pending -> rejected, both terminal.
type ExceptionStatus string

const (
	ExceptionStatusPending  ExceptionStatus = "pending"
	ExceptionStatusApproved ExceptionStatus = "approved"
	ExceptionStatusRejected ExceptionStatus = "rejected"
)

// Decided reports whether the exception has reached a terminal state.
func (s ExceptionStatus) Decided() bool {
	return s == ExceptionStatusApproved || s == ExceptionStatusRejected
}

// AttendanceException is a student's justification for an absence. SessionID
// is nil when the request predates any recorded session for that date; in
// that case a review decision changes no attendance rows.
type AttendanceException struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	StudentID    uint            `gorm:"index;not null" json:"student_id"`
	Date         string          `gorm:"size:10;index;not null" json:"date"`
	Reason       string          `gorm:"type:text;not null" json:"reason"`
	ProofURL     string          `gorm:"size:512" json:"proof_url"`
	Status       ExceptionStatus `gorm:"size:16;not null;default:pending" json:"status"`
	SessionID    *string         `gorm:"size:36;index" json:"session_id,omitempty"`
	ReviewedByID *uint           `gorm:"index" json:"reviewed_by_id,omitempty"`
	ReviewedAt   *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Student    Student `json:"-"`
	ReviewedBy *User   `gorm:"foreignKey:ReviewedByID" json:"-"`
}

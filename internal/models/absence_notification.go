package models

import "time"

// AbsenceNotification keeps a rolling consecutive-absence counter per
// student. It is upserted on every absence and reset when the student is
// marked present or late again. Nothing in the API sets Notified yet; the
// at-risk listing only reads it.
type AbsenceNotification struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	StudentID       uint      `gorm:"uniqueIndex;not null" json:"student_id"`
	ConsecutiveDays int       `gorm:"not null;default:0" json:"consecutive_days"`
	LastAbsenceDate string    `gorm:"size:10" json:"last_absence_date"`
	Notified        bool      `gorm:"not null;default:false" json:"notified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Student Student `json:"-"`
}

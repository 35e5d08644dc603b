package models

import "time"

// Student represents a learner whose attendance is tracked. ParentEmail is
// the preferred recipient for absence notifications; the student's own email
// is the fallback.
type Student struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	RollNo      string    `gorm:"size:64;index" json:"roll_no"`
	ParentEmail string    `gorm:"size:255" json:"parent_email"`
	AuthSubject string    `gorm:"size:128;index" json:"auth_subject"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Batches []Batch `gorm:"many2many:batch_students" json:"-"`
}

// NotificationRecipient returns the address absence mail should go to.
func (s Student) NotificationRecipient() string {
	if s.ParentEmail != "" {
		return s.ParentEmail
	}
	return s.Email
}

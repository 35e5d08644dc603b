package models

import "time"

// Batch is a cohort of students taught a set of subjects together.
type Batch struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	AcademicYear string    `gorm:"size:16" json:"academic_year"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Students []Student `gorm:"many2many:batch_students" json:"-"`
	Subjects []Subject `gorm:"many2many:batch_subjects" json:"-"`
}

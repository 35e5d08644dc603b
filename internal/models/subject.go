package models

import "time"

// Subject is a course taught to one or more batches.
type Subject struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Code      string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Batches  []Batch `gorm:"many2many:batch_subjects" json:"-"`
	Teachers []User  `gorm:"many2many:subject_teachers" json:"-"`
}

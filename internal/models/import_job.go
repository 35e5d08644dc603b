package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportJob records the outcome of one CSV student import for auditing.
// Report holds the per-row results as returned to the caller.
type ImportJob struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UploadedBy  uint           `gorm:"index;not null" json:"uploaded_by"`
	FileName    string         `gorm:"size:255" json:"file_name"`
	TotalRows   int            `gorm:"not null" json:"total_rows"`
	Created     int            `gorm:"not null" json:"created"`
	Updated     int            `gorm:"not null" json:"updated"`
	Failed      int            `gorm:"not null" json:"failed"`
	Report      datatypes.JSON `json:"report"`
	CompletedAt time.Time      `json:"completed_at"`
	CreatedAt   time.Time      `json:"created_at"`
}

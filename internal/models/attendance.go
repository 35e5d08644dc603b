package models

import "time"

// AttendanceStatus enumerates the per-student marks for a session.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
)

// Valid reports whether the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// Date and time layouts used throughout the attendance API.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Attendance is one student's mark within a session. All rows sharing a
// SessionID must share Date, Time, BatchID, SubjectID and TeacherID; the
// invariant is kept by writing rows only through the intake path, which
// creates a whole session in one bulk insert.
type Attendance struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	SessionID string           `gorm:"size:36;index;not null" json:"session_id"`
	Date      string           `gorm:"size:10;index;not null" json:"date"`
	Time      string           `gorm:"size:5;not null" json:"time"`
	Status    AttendanceStatus `gorm:"size:16;not null" json:"status"`
	IsLocked  bool             `gorm:"not null;default:false" json:"is_locked"`
	TeacherID uint             `gorm:"index;not null" json:"teacher_id"`
	StudentID uint             `gorm:"index;not null" json:"student_id"`
	SubjectID uint             `gorm:"index;not null" json:"subject_id"`
	BatchID   uint             `gorm:"index;not null" json:"batch_id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

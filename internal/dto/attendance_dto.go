package dto

import (
	"time"

	"github.com/noah-isme/attendly-go-api/internal/models"
)

// AttendanceEntry is one student's mark inside a submission.
type AttendanceEntry struct {
	StudentID uint   `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent late"`
}

// TakeAttendanceRequest describes one session's worth of attendance.
type TakeAttendanceRequest struct {
	BatchID   uint              `json:"batch_id" validate:"required"`
	SubjectID uint              `json:"subject_id" validate:"required"`
	Date      string            `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string            `json:"time" validate:"required,datetime=15:04"`
	Entries   []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// SkippedStudent identifies a student whose submitted status was overridden
// because a rejected exception already adjudicated the date.
type SkippedStudent struct {
	StudentID uint   `json:"student_id"`
	Name      string `json:"name"`
}

// TakeAttendanceResponse reports the outcome of an intake submission.
type TakeAttendanceResponse struct {
	SessionID       string           `json:"session_id"`
	MarkedCount     int              `json:"marked_count"`
	SkippedCount    int              `json:"skipped_count"`
	SkippedStudents []SkippedStudent `json:"skipped_students"`
	MailedCount     int              `json:"mailed_count"`
}

// AttendanceUpdate is one row correction in a bulk update.
type AttendanceUpdate struct {
	AttendanceID uint   `json:"attendance_id" validate:"required"`
	Status       string `json:"status" validate:"required,oneof=present absent late"`
}

// BulkUpdateRequest corrects rows of an already recorded session.
type BulkUpdateRequest struct {
	Updates []AttendanceUpdate `json:"updates" validate:"required,min=1,dive"`
}

// BulkUpdateResponse reports applied and skipped corrections. Locked rows
// are never overwritten; their ids come back in LockedSkipped.
type BulkUpdateResponse struct {
	UpdatedCount  int    `json:"updated_count"`
	LockedSkipped []uint `json:"locked_skipped"`
}

// AttendanceResponse is the serialized representation of one attendance row.
type AttendanceResponse struct {
	ID        uint      `json:"id"`
	SessionID string    `json:"session_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Status    string    `json:"status"`
	IsLocked  bool      `json:"is_locked"`
	TeacherID uint      `json:"teacher_id"`
	StudentID uint      `json:"student_id"`
	SubjectID uint      `json:"subject_id"`
	BatchID   uint      `json:"batch_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAttendanceResponse converts a model into a DTO.
func NewAttendanceResponse(model models.Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:        model.ID,
		SessionID: model.SessionID,
		Date:      model.Date,
		Time:      model.Time,
		Status:    string(model.Status),
		IsLocked:  model.IsLocked,
		TeacherID: model.TeacherID,
		StudentID: model.StudentID,
		SubjectID: model.SubjectID,
		BatchID:   model.BatchID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewAttendanceResponseSlice converts a slice of models into DTOs.
func NewAttendanceResponseSlice(rows []models.Attendance) []AttendanceResponse {
	responses := make([]AttendanceResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, NewAttendanceResponse(row))
	}

	return responses
}

// AtRiskStudent surfaces a student who crossed the consecutive-absence
// threshold and has not been notified.
type AtRiskStudent struct {
	StudentID       uint   `json:"student_id"`
	StudentName     string `json:"student_name"`
	ConsecutiveDays int    `json:"consecutive_days"`
	LastAbsenceDate string `json:"last_absence_date"`
}

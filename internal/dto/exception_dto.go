package dto

import (
	"time"

	"github.com/noah-isme/attendly-go-api/internal/models"
)

// ExceptionCreateRequest is a student's absence justification submission.
// The proof file travels separately as multipart content.
type ExceptionCreateRequest struct {
	Date   string `form:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Reason string `form:"reason" json:"reason" validate:"required,min=10"`
}

// ExceptionReviewRequest carries the admin decision.
type ExceptionReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

// ExceptionListRequest filters the exception listing.
type ExceptionListRequest struct {
	StudentID uint
	Status    string `validate:"omitempty,oneof=pending approved rejected"`
	Page      int
	PageSize  int
}

// ExceptionResponse is the serialized representation of an exception.
type ExceptionResponse struct {
	ID          uint       `json:"id"`
	StudentID   uint       `json:"student_id"`
	StudentName string     `json:"student_name,omitempty"`
	Date        string     `json:"date"`
	Reason      string     `json:"reason"`
	ProofURL    string     `json:"proof_url,omitempty"`
	Status      string     `json:"status"`
	SessionID   *string    `json:"session_id,omitempty"`
	ReviewedBy  *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ExceptionListResponse pairs a page of exceptions with pagination metadata.
type ExceptionListResponse struct {
	Items      []ExceptionResponse `json:"items"`
	Pagination Pagination          `json:"pagination"`
}

// NewExceptionResponse converts a model into a DTO.
func NewExceptionResponse(model models.AttendanceException) ExceptionResponse {
	response := ExceptionResponse{
		ID:         model.ID,
		StudentID:  model.StudentID,
		Date:       model.Date,
		Reason:     model.Reason,
		ProofURL:   model.ProofURL,
		Status:     string(model.Status),
		SessionID:  model.SessionID,
		ReviewedBy: model.ReviewedByID,
		ReviewedAt: model.ReviewedAt,
		CreatedAt:  model.CreatedAt,
	}
	if model.Student.ID != 0 {
		response.StudentName = model.Student.Name
	}
	return response
}

// NewExceptionResponseSlice converts a slice of models into DTOs.
func NewExceptionResponseSlice(exceptions []models.AttendanceException) []ExceptionResponse {
	responses := make([]ExceptionResponse, 0, len(exceptions))
	for _, exception := range exceptions {
		responses = append(responses, NewExceptionResponse(exception))
	}

	return responses
}

package dto

import (
	"time"

	"github.com/noah-isme/attendly-go-api/internal/models"
)

// TeacherCreateRequest describes the payload for registering a staff user.
type TeacherCreateRequest struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin teacher"`
}

// TeacherUpdateRequest describes a partial staff update.
type TeacherUpdateRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=2"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Role   *string `json:"role" validate:"omitempty,oneof=admin teacher"`
	Active *bool   `json:"active"`
}

// TeacherResponse is the serialized representation of a staff user.
type TeacherResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTeacherResponse converts a model into a DTO.
func NewTeacherResponse(model models.User) TeacherResponse {
	return TeacherResponse{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		Role:      model.Role,
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewTeacherResponseSlice converts a slice of models into DTOs.
func NewTeacherResponseSlice(users []models.User) []TeacherResponse {
	responses := make([]TeacherResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewTeacherResponse(user))
	}

	return responses
}

// BatchCreateRequest describes the payload for creating a batch.
type BatchCreateRequest struct {
	Name         string `json:"name" validate:"required,min=2"`
	AcademicYear string `json:"academic_year" validate:"omitempty,len=9"`
}

// BatchUpdateRequest describes a partial batch update.
type BatchUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=2"`
	AcademicYear *string `json:"academic_year" validate:"omitempty,len=9"`
}

// BatchResponse is the serialized representation of a batch.
type BatchResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	AcademicYear string    `json:"academic_year"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewBatchResponse converts a model into a DTO.
func NewBatchResponse(model models.Batch) BatchResponse {
	return BatchResponse{
		ID:           model.ID,
		Name:         model.Name,
		AcademicYear: model.AcademicYear,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewBatchResponseSlice converts a slice of models into DTOs.
func NewBatchResponseSlice(batches []models.Batch) []BatchResponse {
	responses := make([]BatchResponse, 0, len(batches))
	for _, batch := range batches {
		responses = append(responses, NewBatchResponse(batch))
	}

	return responses
}

// SubjectCreateRequest describes the payload for creating a subject.
type SubjectCreateRequest struct {
	Name string `json:"name" validate:"required,min=2"`
	Code string `json:"code" validate:"required,min=2,max=32"`
}

// SubjectUpdateRequest describes a partial subject update.
type SubjectUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,min=2"`
	Code *string `json:"code" validate:"omitempty,min=2,max=32"`
}

// SubjectResponse is the serialized representation of a subject.
type SubjectResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSubjectResponse converts a model into a DTO.
func NewSubjectResponse(model models.Subject) SubjectResponse {
	return SubjectResponse{
		ID:        model.ID,
		Name:      model.Name,
		Code:      model.Code,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewSubjectResponseSlice converts a slice of models into DTOs.
func NewSubjectResponseSlice(subjects []models.Subject) []SubjectResponse {
	responses := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		responses = append(responses, NewSubjectResponse(subject))
	}

	return responses
}

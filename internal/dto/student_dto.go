package dto

import (
	"time"

	"github.com/noah-isme/attendly-go-api/internal/models"
)

// StudentCreateRequest describes the payload for registering a student.
type StudentCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	RollNo      string `json:"roll_no" validate:"required"`
	ParentEmail string `json:"parent_email" validate:"omitempty,email"`
}

// StudentUpdateRequest describes a partial student update.
type StudentUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2"`
	Email       *string `json:"email" validate:"omitempty,email"`
	RollNo      *string `json:"roll_no" validate:"omitempty"`
	ParentEmail *string `json:"parent_email" validate:"omitempty,email"`
	Active      *bool   `json:"active"`
}

// StudentResponse is the serialized representation of a student.
type StudentResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	RollNo      string    `json:"roll_no"`
	ParentEmail string    `json:"parent_email"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StudentListResponse pairs a page of students with pagination metadata.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

// NewStudentResponse converts a model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	return StudentResponse{
		ID:          model.ID,
		Name:        model.Name,
		Email:       model.Email,
		RollNo:      model.RollNo,
		ParentEmail: model.ParentEmail,
		Active:      model.Active,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewStudentResponseSlice converts a slice of models into DTOs.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}

	return responses
}

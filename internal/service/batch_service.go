package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/attendly-go-api/internal/dto"
	"github.com/noah-isme/attendly-go-api/internal/models"
	"github.com/noah-isme/attendly-go-api/internal/repository"
)

var (
	// ErrBatchNotFound indicates the requested batch does not exist.
	ErrBatchNotFound = errors.New("batch not found")
	// ErrDuplicateBatch indicates a batch with the same name already exists.
	ErrDuplicateBatch = errors.New("batch name already taken")
)

// BatchService exposes batch management and membership use cases.
type BatchService interface {
	List(ctx context.Context) ([]dto.BatchResponse, error)
	Get(ctx context.Context, id uint) (dto.BatchResponse, error)
	Create(ctx context.Context, payload dto.BatchCreateRequest) (dto.BatchResponse, error)
	Update(ctx context.Context, id uint, payload dto.BatchUpdateRequest) (dto.BatchResponse, error)
	Delete(ctx context.Context, id uint) error
	AddStudent(ctx context.Context, batchID, studentID uint) error
	RemoveStudent(ctx context.Context, batchID, studentID uint) error
	AddSubject(ctx context.Context, batchID, subjectID uint) error
	RemoveSubject(ctx context.Context, batchID, subjectID uint) error
	ListStudents(ctx context.Context, batchID uint) ([]dto.StudentResponse, error)
}

type batchService struct {
	batches   repository.BatchRepository
	students  repository.StudentRepository
	subjects  repository.SubjectRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewBatchService builds the batch management service.
func NewBatchService(
	batches repository.BatchRepository,
	students repository.StudentRepository,
	subjects repository.SubjectRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) BatchService {
	return &batchService{
		batches:   batches,
		students:  students,
		subjects:  subjects,
		validator: validate,
		logger:    logger.With().Str("component", "batch_service").Logger(),
	}
}

func (s *batchService) List(ctx context.Context) ([]dto.BatchResponse, error) {
	batches, err := s.batches.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewBatchResponseSlice(batches), nil
}

func (s *batchService) Get(ctx context.Context, id uint) (dto.BatchResponse, error) {
	batch, err := s.getBatch(ctx, id)
	if err != nil {
		return dto.BatchResponse{}, err
	}

	return dto.NewBatchResponse(batch), nil
}

func (s *batchService) Create(ctx context.Context, payload dto.BatchCreateRequest) (dto.BatchResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BatchResponse{}, err
	}

	name := strings.TrimSpace(payload.Name)
	if _, err := s.batches.GetByName(ctx, name); err == nil {
		return dto.BatchResponse{}, ErrDuplicateBatch
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.BatchResponse{}, err
	}

	batch := models.Batch{
		Name:         name,
		AcademicYear: strings.TrimSpace(payload.AcademicYear),
	}

	if err := s.batches.Create(ctx, &batch); err != nil {
		return dto.BatchResponse{}, err
	}

	s.logger.Info().Uint("batch_id", batch.ID).Str("name", batch.Name).Msg("batch created")

	return dto.NewBatchResponse(batch), nil
}

func (s *batchService) Update(ctx context.Context, id uint, payload dto.BatchUpdateRequest) (dto.BatchResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BatchResponse{}, err
	}

	batch, err := s.getBatch(ctx, id)
	if err != nil {
		return dto.BatchResponse{}, err
	}

	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if name != batch.Name {
			if _, err := s.batches.GetByName(ctx, name); err == nil {
				return dto.BatchResponse{}, ErrDuplicateBatch
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.BatchResponse{}, err
			}
			batch.Name = name
		}
	}
	if payload.AcademicYear != nil {
		batch.AcademicYear = strings.TrimSpace(*payload.AcademicYear)
	}

	if err := s.batches.Update(ctx, &batch); err != nil {
		return dto.BatchResponse{}, err
	}

	s.logger.Info().Uint("batch_id", batch.ID).Msg("batch updated")

	return dto.NewBatchResponse(batch), nil
}

func (s *batchService) Delete(ctx context.Context, id uint) error {
	if err := s.batches.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBatchNotFound
		}
		return err
	}

	s.logger.Info().Uint("batch_id", id).Msg("batch deleted")
	return nil
}

func (s *batchService) AddStudent(ctx context.Context, batchID, studentID uint) error {
	if _, err := s.getBatch(ctx, batchID); err != nil {
		return err
	}
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	return s.batches.AddStudent(ctx, batchID, studentID)
}

func (s *batchService) RemoveStudent(ctx context.Context, batchID, studentID uint) error {
	if _, err := s.getBatch(ctx, batchID); err != nil {
		return err
	}

	return s.batches.RemoveStudent(ctx, batchID, studentID)
}

func (s *batchService) AddSubject(ctx context.Context, batchID, subjectID uint) error {
	if _, err := s.getBatch(ctx, batchID); err != nil {
		return err
	}
	if _, err := s.subjects.GetByID(ctx, subjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	return s.batches.AddSubject(ctx, batchID, subjectID)
}

func (s *batchService) RemoveSubject(ctx context.Context, batchID, subjectID uint) error {
	if _, err := s.getBatch(ctx, batchID); err != nil {
		return err
	}

	return s.batches.RemoveSubject(ctx, batchID, subjectID)
}

func (s *batchService) ListStudents(ctx context.Context, batchID uint) ([]dto.StudentResponse, error) {
	if _, err := s.getBatch(ctx, batchID); err != nil {
		return nil, err
	}

	students, err := s.batches.ListStudents(ctx, batchID)
	if err != nil {
		return nil, err
	}

	return dto.NewStudentResponseSlice(students), nil
}

func (s *batchService) getBatch(ctx context.Context, id uint) (models.Batch, error) {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Batch{}, ErrBatchNotFound
		}
		return models.Batch{}, err
	}

	return batch, nil
}

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
	// ErrSubjectNotFound indicates the requested subject does not exist.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrDuplicateCode indicates a subject with the same code already exists.
	ErrDuplicateCode = errors.New("subject code already taken")
)

// SubjectService exposes subject management and teaching assignments.
type SubjectService interface {
	List(ctx context.Context) ([]dto.SubjectResponse, error)
	Get(ctx context.Context, id uint) (dto.SubjectResponse, error)
	Create(ctx context.Context, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error)
	Update(ctx context.Context, id uint, payload dto.SubjectUpdateRequest) (dto.SubjectResponse, error)
	Delete(ctx context.Context, id uint) error
	AddTeacher(ctx context.Context, subjectID, userID uint) error
	RemoveTeacher(ctx context.Context, subjectID, userID uint) error
}

type subjectService struct {
	subjects  repository.SubjectRepository
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubjectService builds the subject management service.
func NewSubjectService(
	subjects repository.SubjectRepository,
	users repository.UserRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubjectService {
	return &subjectService{
		subjects:  subjects,
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "subject_service").Logger(),
	}
}

func (s *subjectService) List(ctx context.Context) ([]dto.SubjectResponse, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewSubjectResponseSlice(subjects), nil
}

func (s *subjectService) Get(ctx context.Context, id uint) (dto.SubjectResponse, error) {
	subject, err := s.getSubject(ctx, id)
	if err != nil {
		return dto.SubjectResponse{}, err
	}

	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Create(ctx context.Context, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	code := strings.ToUpper(strings.TrimSpace(payload.Code))
	if _, err := s.subjects.GetByCode(ctx, code); err == nil {
		return dto.SubjectResponse{}, ErrDuplicateCode
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubjectResponse{}, err
	}

	subject := models.Subject{
		Name: strings.TrimSpace(payload.Name),
		Code: code,
	}

	if err := s.subjects.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	s.logger.Info().Uint("subject_id", subject.ID).Str("code", subject.Code).Msg("subject created")

	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Update(ctx context.Context, id uint, payload dto.SubjectUpdateRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject, err := s.getSubject(ctx, id)
	if err != nil {
		return dto.SubjectResponse{}, err
	}

	if payload.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*payload.Code))
		if code != subject.Code {
			if _, err := s.subjects.GetByCode(ctx, code); err == nil {
				return dto.SubjectResponse{}, ErrDuplicateCode
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.SubjectResponse{}, err
			}
			subject.Code = code
		}
	}
	if payload.Name != nil {
		subject.Name = strings.TrimSpace(*payload.Name)
	}

	if err := s.subjects.Update(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	s.logger.Info().Uint("subject_id", subject.ID).Msg("subject updated")

	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Delete(ctx context.Context, id uint) error {
	if err := s.subjects.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	s.logger.Info().Uint("subject_id", id).Msg("subject deleted")
	return nil
}

// AddTeacher assigns a staff user to the subject. Only users allowed to
// take attendance can be assigned.
func (s *subjectService) AddTeacher(ctx context.Context, subjectID, userID uint) error {
	if _, err := s.getSubject(ctx, subjectID); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !user.CanTakeAttendance() {
		return ErrNotTeacher
	}

	return s.subjects.AddTeacher(ctx, subjectID, userID)
}

func (s *subjectService) RemoveTeacher(ctx context.Context, subjectID, userID uint) error {
	if _, err := s.getSubject(ctx, subjectID); err != nil {
		return err
	}

	return s.subjects.RemoveTeacher(ctx, subjectID, userID)
}

func (s *subjectService) getSubject(ctx context.Context, id uint) (models.Subject, error) {
	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Subject{}, ErrSubjectNotFound
		}
		return models.Subject{}, err
	}

	return subject, nil
}

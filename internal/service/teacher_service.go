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

// ErrUserNotFound indicates the requested staff account does not exist.
var ErrUserNotFound = errors.New("user not found")

// TeacherService exposes the admin staff roster use cases.
type TeacherService interface {
	List(ctx context.Context, filter repository.UserFilter) ([]dto.TeacherResponse, dto.Pagination, error)
	Get(ctx context.Context, id uint) (dto.TeacherResponse, error)
	Create(ctx context.Context, payload dto.TeacherCreateRequest) (dto.TeacherResponse, error)
	Update(ctx context.Context, id uint, payload dto.TeacherUpdateRequest) (dto.TeacherResponse, error)
	Deactivate(ctx context.Context, id uint) error
}

type teacherService struct {
	repo      repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewTeacherService builds the staff roster service.
func NewTeacherService(repo repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) TeacherService {
	return &teacherService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "teacher_service").Logger(),
	}
}

func (s *teacherService) List(ctx context.Context, filter repository.UserFilter) ([]dto.TeacherResponse, dto.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, dto.Pagination{}, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}

	return dto.NewTeacherResponseSlice(users), dto.Pagination{
		Page:       page,
		PageSize:   filter.PageSize,
		TotalItems: total,
	}, nil
}

func (s *teacherService) Get(ctx context.Context, id uint) (dto.TeacherResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TeacherResponse{}, ErrUserNotFound
		}
		return dto.TeacherResponse{}, err
	}

	return dto.NewTeacherResponse(user), nil
}

func (s *teacherService) Create(ctx context.Context, payload dto.TeacherCreateRequest) (dto.TeacherResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TeacherResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return dto.TeacherResponse{}, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.TeacherResponse{}, err
	}

	user := models.User{
		Name:   strings.TrimSpace(payload.Name),
		Email:  email,
		Role:   payload.Role,
		Active: true,
	}

	if err := s.repo.Create(ctx, &user); err != nil {
		return dto.TeacherResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("staff user created")

	return dto.NewTeacherResponse(user), nil
}

func (s *teacherService) Update(ctx context.Context, id uint, payload dto.TeacherUpdateRequest) (dto.TeacherResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TeacherResponse{}, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TeacherResponse{}, ErrUserNotFound
		}
		return dto.TeacherResponse{}, err
	}

	if payload.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*payload.Email))
		if email != user.Email {
			if _, err := s.repo.GetByEmail(ctx, email); err == nil {
				return dto.TeacherResponse{}, ErrDuplicateEmail
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.TeacherResponse{}, err
			}
			user.Email = email
		}
	}
	if payload.Name != nil {
		user.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Role != nil {
		user.Role = *payload.Role
	}
	if payload.Active != nil {
		user.Active = *payload.Active
	}

	if err := s.repo.Update(ctx, &user); err != nil {
		return dto.TeacherResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("staff user updated")

	return dto.NewTeacherResponse(user), nil
}

func (s *teacherService) Deactivate(ctx context.Context, id uint) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info().Uint("user_id", id).Msg("staff user deactivated")
	return nil
}

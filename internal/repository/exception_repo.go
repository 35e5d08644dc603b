package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/attendly-go-api/internal/models"
)

// ExceptionFilter scopes the exception listing.
type ExceptionFilter struct {
	StudentID uint
	Status    models.ExceptionStatus
	Page      int
	PageSize  int
}

// ExceptionRepository defines persistence operations for absence
// justifications.
type ExceptionRepository interface {
	Create(ctx context.Context, exception *models.AttendanceException) error
	GetByID(ctx context.Context, id uint) (models.AttendanceException, error)
	List(ctx context.Context, filter ExceptionFilter) ([]models.AttendanceException, int64, error)
	RejectedByDate(ctx context.Context, date string) ([]models.AttendanceException, error)
	Review(ctx context.Context, exception *models.AttendanceException, rowStatus models.AttendanceStatus) error
}

type exceptionRepository struct {
	db *gorm.DB
}

// NewExceptionRepository instantiates a GORM-backed repository.
func NewExceptionRepository(db *gorm.DB) ExceptionRepository {
	return &exceptionRepository{db: db}
}

func (r *exceptionRepository) Create(ctx context.Context, exception *models.AttendanceException) error {
	return r.db.WithContext(ctx).Create(exception).Error
}

func (r *exceptionRepository) GetByID(ctx context.Context, id uint) (models.AttendanceException, error) {
	var exception models.AttendanceException
	if err := r.db.WithContext(ctx).Preload("Student").First(&exception, id).Error; err != nil {
		return models.AttendanceException{}, err
	}

	return exception, nil
}

func (r *exceptionRepository) List(ctx context.Context, filter ExceptionFilter) ([]models.AttendanceException, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AttendanceException{})

	if filter.StudentID != 0 {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Student").Order("created_at DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var exceptions []models.AttendanceException
	if err := query.Find(&exceptions).Error; err != nil {
		return nil, 0, err
	}

	return exceptions, total, nil
}

// RejectedByDate returns the rejected exceptions for one date. The intake
// path uses this to pre-lock absences that were already adjudicated.
func (r *exceptionRepository) RejectedByDate(ctx context.Context, date string) ([]models.AttendanceException, error) {
	var exceptions []models.AttendanceException
	if err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Where("status = ?", models.ExceptionStatusRejected).
		Find(&exceptions).Error; err != nil {
		return nil, err
	}

	return exceptions, nil
}

// Review persists the decision and cascades it onto the matching attendance
// rows in one transaction. An exception without a session id only records
// the decision; no attendance rows exist to touch.
func (r *exceptionRepository) Review(ctx context.Context, exception *models.AttendanceException, rowStatus models.AttendanceStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.AttendanceException{}).
			Where("id = ?", exception.ID).
			Updates(map[string]interface{}{
				"status":         exception.Status,
				"reviewed_by_id": exception.ReviewedByID,
				"reviewed_at":    exception.ReviewedAt,
			}).Error; err != nil {
			return err
		}

		if exception.SessionID == nil {
			return nil
		}

		return tx.Model(&models.Attendance{}).
			Where("session_id = ?", *exception.SessionID).
			Where("student_id = ?", exception.StudentID).
			Updates(map[string]interface{}{
				"status":    rowStatus,
				"is_locked": true,
			}).Error
	})
}

package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/attendly-go-api/internal/models"
)

// AbsenceNotificationRepository maintains the consecutive-absence counters.
type AbsenceNotificationRepository interface {
	RecordAbsence(ctx context.Context, studentID uint, date string) error
	ResetStreak(ctx context.Context, studentID uint) error
	ListAtRisk(ctx context.Context, threshold int) ([]models.AbsenceNotification, error)
}

type absenceNotificationRepository struct {
	db *gorm.DB
}

// NewAbsenceNotificationRepository instantiates a GORM-backed repository.
func NewAbsenceNotificationRepository(db *gorm.DB) AbsenceNotificationRepository {
	return &absenceNotificationRepository{db: db}
}

// RecordAbsence upserts the counter for one absence event: the streak grows
// by one, the last absence date moves forward and the notified flag resets.
func (r *absenceNotificationRepository) RecordAbsence(ctx context.Context, studentID uint, date string) error {
	record := models.AbsenceNotification{
		StudentID:       studentID,
		ConsecutiveDays: 1,
		LastAbsenceDate: date,
		Notified:        false,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"consecutive_days":  gorm.Expr("absence_notifications.consecutive_days + 1"),
			"last_absence_date": date,
			"notified":          false,
		}),
	}).Create(&record).Error
}

// ResetStreak zeroes the counter when the student shows up again. A missing
// record is fine; there is nothing to reset.
func (r *absenceNotificationRepository) ResetStreak(ctx context.Context, studentID uint) error {
	return r.db.WithContext(ctx).Model(&models.AbsenceNotification{}).
		Where("student_id = ?", studentID).
		Update("consecutive_days", 0).Error
}

func (r *absenceNotificationRepository) ListAtRisk(ctx context.Context, threshold int) ([]models.AbsenceNotification, error) {
	var records []models.AbsenceNotification
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Where("consecutive_days >= ?", threshold).
		Where("notified = ?", false).
		Order("consecutive_days DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

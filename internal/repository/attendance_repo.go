package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/attendly-go-api/internal/models"
)

// SessionFilter scopes the aggregated session listing. Subject-name
// filtering and pagination happen in the service after name resolution,
// because the grouping query cannot see subject names.
type SessionFilter struct {
	TeacherID uint
	BatchID   uint
	SubjectID uint
	Date      string
}

// SessionRow is one grouped session as produced by the aggregation query.
// SessionID is the minimum identifier in the group; all rows of a properly
// written session share one anyway.
type SessionRow struct {
	SessionID    string `gorm:"column:session_id"`
	Date         string `gorm:"column:date"`
	Time         string `gorm:"column:time"`
	BatchID      uint   `gorm:"column:batch_id"`
	SubjectID    uint   `gorm:"column:subject_id"`
	StudentCount int    `gorm:"column:student_count"`
}

// StatusUpdate is one row correction applied by the bulk update path.
type StatusUpdate struct {
	AttendanceID uint
	Status       models.AttendanceStatus
}

// HistoryFilter scopes a student's attendance history listing.
type HistoryFilter struct {
	StudentID uint
	DateFrom  string
	DateTo    string
	Page      int
	PageSize  int
}

// StatusCount is one (subject, status) bucket of a student's summary.
type StatusCount struct {
	SubjectID uint                    `gorm:"column:subject_id"`
	Status    models.AttendanceStatus `gorm:"column:status"`
	Count     int                     `gorm:"column:count"`
}

// AttendanceRepository defines persistence operations for attendance rows.
type AttendanceRepository interface {
	CreateSession(ctx context.Context, rows []models.Attendance) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Attendance, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Attendance, error)
	ApplyStatusUpdates(ctx context.Context, updates []StatusUpdate) error
	ListSessions(ctx context.Context, filter SessionFilter) ([]SessionRow, error)
	ListByStudent(ctx context.Context, filter HistoryFilter) ([]models.Attendance, int64, error)
	SummaryByStudent(ctx context.Context, studentID uint) ([]StatusCount, error)
	SessionForStudentDate(ctx context.Context, studentID uint, date string) (string, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository instantiates a GORM-backed repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// CreateSession inserts a whole session in one bulk write. The intake path
// is the only writer of new rows, which is what keeps all rows of a session
// agreeing on date, time, batch, subject and teacher.
func (r *attendanceRepository) CreateSession(ctx context.Context, rows []models.Attendance) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *attendanceRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Attendance, error) {
	var rows []models.Attendance
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("student_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *attendanceRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Attendance, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []models.Attendance
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// ApplyStatusUpdates writes all corrections in one transaction so a partial
// failure rolls the whole batch back. Locked rows must be filtered out by
// the caller before this point; the guard here is a second line of defence.
func (r *attendanceRepository) ApplyStatusUpdates(ctx context.Context, updates []StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, update := range updates {
			result := tx.Model(&models.Attendance{}).
				Where("id = ?", update.AttendanceID).
				Where("is_locked = ?", false).
				Update("status", update.Status)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}

// ListSessions groups flat attendance rows into logical sessions keyed by
// (date, time, batch, subject), newest first. This is the single canonical
// aggregation used by every session listing.
func (r *attendanceRepository) ListSessions(ctx context.Context, filter SessionFilter) ([]SessionRow, error) {
	query := r.db.WithContext(ctx).Model(&models.Attendance{}).
		Select("MIN(session_id) AS session_id, date, time, batch_id, subject_id, COUNT(*) AS student_count").
		Group("date, time, batch_id, subject_id").
		Order("date DESC, time DESC")

	if filter.TeacherID != 0 {
		query = query.Where("teacher_id = ?", filter.TeacherID)
	}
	if filter.BatchID != 0 {
		query = query.Where("batch_id = ?", filter.BatchID)
	}
	if filter.SubjectID != 0 {
		query = query.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}

	var rows []SessionRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *attendanceRepository) ListByStudent(ctx context.Context, filter HistoryFilter) ([]models.Attendance, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Attendance{}).
		Where("student_id = ?", filter.StudentID)

	if filter.DateFrom != "" {
		query = query.Where("date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("date <= ?", filter.DateTo)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("date DESC, time DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var rows []models.Attendance
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// SessionForStudentDate finds the session a student's attendance row for
// one date belongs to. gorm.ErrRecordNotFound means no session was recorded
// for that date, which is a legitimate state for exception submissions.
func (r *attendanceRepository) SessionForStudentDate(ctx context.Context, studentID uint, date string) (string, error) {
	var row models.Attendance
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Where("date = ?", date).
		Order("time DESC").
		First(&row).Error; err != nil {
		return "", err
	}

	return row.SessionID, nil
}

func (r *attendanceRepository) SummaryByStudent(ctx context.Context, studentID uint) ([]StatusCount, error) {
	var counts []StatusCount
	if err := r.db.WithContext(ctx).Model(&models.Attendance{}).
		Select("subject_id, status, COUNT(*) AS count").
		Where("student_id = ?", studentID).
		Group("subject_id, status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	return counts, nil
}

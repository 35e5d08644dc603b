package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/attendly-go-api/internal/dto"
	"github.com/noah-isme/attendly-go-api/internal/models"
	"github.com/noah-isme/attendly-go-api/internal/observability"
	"github.com/noah-isme/attendly-go-api/internal/repository"
)

var (
	// ErrNotTeacher indicates the actor may not record attendance.
	ErrNotTeacher = errors.New("actor is not an authorized teacher")
	// ErrDuplicateStudent indicates a student appears twice in one submission.
	ErrDuplicateStudent = errors.New("duplicate student in submission")
	// ErrStudentUnknown indicates a submitted student id does not exist.
	ErrStudentUnknown = errors.New("unknown student in submission")
	// ErrAttendanceNotFound indicates a referenced attendance row does not exist.
	ErrAttendanceNotFound = errors.New("attendance row not found")
	// ErrSessionNotFound indicates no rows exist for the session id.
	ErrSessionNotFound = errors.New("session not found")
)

// AbsenceMailer dispatches one absence notification. Implemented by the
// SMTP mailer; stubbed in tests.
type AbsenceMailer interface {
	SendAbsenceNotice(ctx context.Context, recipient, studentName, subjectName, date, timeOfDay string) error
}

// AttendanceService exposes the intake and correction use cases.
type AttendanceService interface {
	Take(ctx context.Context, actor Actor, payload dto.TakeAttendanceRequest) (dto.TakeAttendanceResponse, error)
	BulkUpdate(ctx context.Context, payload dto.BulkUpdateRequest) (dto.BulkUpdateResponse, error)
	ListAtRisk(ctx context.Context) ([]dto.AtRiskStudent, error)
}

type attendanceService struct {
	attendance repository.AttendanceRepository
	exceptions repository.ExceptionRepository
	absences   repository.AbsenceNotificationRepository
	students   repository.StudentRepository
	subjects   repository.SubjectRepository
	users      repository.UserRepository
	validator  *validator.Validate
	mailer     AbsenceMailer
	logger     zerolog.Logger
	threshold  int
	newSession func() string
}

// NewAttendanceService builds the attendance service.
func NewAttendanceService(
	attendance repository.AttendanceRepository,
	exceptions repository.ExceptionRepository,
	absences repository.AbsenceNotificationRepository,
	students repository.StudentRepository,
	subjects repository.SubjectRepository,
	users repository.UserRepository,
	validate *validator.Validate,
	mailer AbsenceMailer,
	threshold int,
	logger zerolog.Logger,
) AttendanceService {
	if threshold <= 0 {
		threshold = 3
	}
	return &attendanceService{
		attendance: attendance,
		exceptions: exceptions,
		absences:   absences,
		students:   students,
		subjects:   subjects,
		users:      users,
		validator:  validate,
		mailer:     mailer,
		logger:     logger.With().Str("component", "attendance_service").Logger(),
		threshold:  threshold,
		newSession: uuid.NewString,
	}
}

// Take records one session's worth of attendance in a single bulk insert.
// Students with a rejected exception for the date are written as locked
// absences and skipped for notification; the attendance write is never
// rolled back because mail failed.
func (s *attendanceService) Take(ctx context.Context, actor Actor, payload dto.TakeAttendanceRequest) (dto.TakeAttendanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TakeAttendanceResponse{}, err
	}

	seen := make(map[uint]struct{}, len(payload.Entries))
	for _, entry := range payload.Entries {
		if _, dup := seen[entry.StudentID]; dup {
			return dto.TakeAttendanceResponse{}, ErrDuplicateStudent
		}
		seen[entry.StudentID] = struct{}{}
	}

	teacher, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TakeAttendanceResponse{}, ErrNotTeacher
		}
		return dto.TakeAttendanceResponse{}, err
	}
	if !teacher.CanTakeAttendance() {
		return dto.TakeAttendanceResponse{}, ErrNotTeacher
	}

	studentIDs := make([]uint, 0, len(payload.Entries))
	for _, entry := range payload.Entries {
		studentIDs = append(studentIDs, entry.StudentID)
	}

	students, err := s.students.GetByIDs(ctx, studentIDs)
	if err != nil {
		return dto.TakeAttendanceResponse{}, err
	}
	studentByID := make(map[uint]models.Student, len(students))
	for _, student := range students {
		studentByID[student.ID] = student
	}
	for _, id := range studentIDs {
		if _, ok := studentByID[id]; !ok {
			return dto.TakeAttendanceResponse{}, ErrStudentUnknown
		}
	}

	rejected, err := s.exceptions.RejectedByDate(ctx, payload.Date)
	if err != nil {
		return dto.TakeAttendanceResponse{}, err
	}
	locked := make(map[uint]struct{}, len(rejected))
	for _, exception := range rejected {
		locked[exception.StudentID] = struct{}{}
	}

	sessionID := s.newSession()
	rows := make([]models.Attendance, 0, len(payload.Entries))
	skipped := make([]dto.SkippedStudent, 0)

	for _, entry := range payload.Entries {
		status := models.AttendanceStatus(entry.Status)
		isLocked := false
		if _, adjudicated := locked[entry.StudentID]; adjudicated {
			// The absence was already adjudicated; the submitted status
			// does not override the decision.
			status = models.AttendanceStatusAbsent
			isLocked = true
			skipped = append(skipped, dto.SkippedStudent{
				StudentID: entry.StudentID,
				Name:      studentByID[entry.StudentID].Name,
			})
		}

		rows = append(rows, models.Attendance{
			SessionID: sessionID,
			Date:      payload.Date,
			Time:      payload.Time,
			Status:    status,
			IsLocked:  isLocked,
			TeacherID: teacher.ID,
			StudentID: entry.StudentID,
			SubjectID: payload.SubjectID,
			BatchID:   payload.BatchID,
		})
	}

	if err := s.attendance.CreateSession(ctx, rows); err != nil {
		return dto.TakeAttendanceResponse{}, err
	}

	mailed := s.notifyAbsentees(ctx, rows, studentByID, payload)

	s.logger.Info().
		Str("session_id", sessionID).
		Int("marked", len(rows)).
		Int("skipped", len(skipped)).
		Int("mailed", mailed).
		Msg("attendance recorded")

	return dto.TakeAttendanceResponse{
		SessionID:       sessionID,
		MarkedCount:     len(rows),
		SkippedCount:    len(skipped),
		SkippedStudents: skipped,
		MailedCount:     mailed,
	}, nil
}

// notifyAbsentees sends one mail per absent, unlocked student and keeps the
// absence counters current. Send failures are counted, not retried, and do
// not affect the other students.
func (s *attendanceService) notifyAbsentees(ctx context.Context, rows []models.Attendance, studentByID map[uint]models.Student, payload dto.TakeAttendanceRequest) int {
	subjectName := ""
	if subject, err := s.subjects.GetByID(ctx, payload.SubjectID); err == nil {
		subjectName = subject.Name
	}

	mailed := 0
	for _, row := range rows {
		if row.Status != models.AttendanceStatusAbsent || row.IsLocked {
			continue
		}

		if err := s.absences.RecordAbsence(ctx, row.StudentID, row.Date); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", row.StudentID).Msg("failed to record absence streak")
		}

		student := studentByID[row.StudentID]
		err := s.mailer.SendAbsenceNotice(ctx, student.NotificationRecipient(), student.Name, subjectName, row.Date, row.Time)
		if err != nil {
			observability.AbsenceMail().WithLabelValues("failure").Inc()
			s.logger.Warn().Err(err).Uint("student_id", row.StudentID).Msg("absence notice failed")
			continue
		}

		observability.AbsenceMail().WithLabelValues("success").Inc()
		mailed++
	}

	return mailed
}

// BulkUpdate corrects rows of a recorded session in one transaction. Locked
// rows are skipped and reported back, never overwritten.
func (s *attendanceService) BulkUpdate(ctx context.Context, payload dto.BulkUpdateRequest) (dto.BulkUpdateResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BulkUpdateResponse{}, err
	}

	ids := make([]uint, 0, len(payload.Updates))
	for _, update := range payload.Updates {
		ids = append(ids, update.AttendanceID)
	}

	rows, err := s.attendance.GetByIDs(ctx, ids)
	if err != nil {
		return dto.BulkUpdateResponse{}, err
	}
	rowByID := make(map[uint]models.Attendance, len(rows))
	for _, row := range rows {
		rowByID[row.ID] = row
	}

	lockedSkipped := make([]uint, 0)
	updates := make([]repository.StatusUpdate, 0, len(payload.Updates))

	for _, update := range payload.Updates {
		row, ok := rowByID[update.AttendanceID]
		if !ok {
			return dto.BulkUpdateResponse{}, ErrAttendanceNotFound
		}
		if row.IsLocked {
			lockedSkipped = append(lockedSkipped, row.ID)
			continue
		}
		updates = append(updates, repository.StatusUpdate{
			AttendanceID: update.AttendanceID,
			Status:       models.AttendanceStatus(update.Status),
		})
	}

	if err := s.attendance.ApplyStatusUpdates(ctx, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BulkUpdateResponse{}, ErrAttendanceNotFound
		}
		return dto.BulkUpdateResponse{}, err
	}

	for _, update := range updates {
		previous := rowByID[update.AttendanceID]
		s.maintainStreak(ctx, previous, update.Status)
	}

	s.logger.Info().
		Int("updated", len(updates)).
		Int("locked_skipped", len(lockedSkipped)).
		Msg("attendance corrected")

	return dto.BulkUpdateResponse{
		UpdatedCount:  len(updates),
		LockedSkipped: lockedSkipped,
	}, nil
}

func (s *attendanceService) maintainStreak(ctx context.Context, previous models.Attendance, next models.AttendanceStatus) {
	switch {
	case next == models.AttendanceStatusAbsent && previous.Status != models.AttendanceStatusAbsent:
		if err := s.absences.RecordAbsence(ctx, previous.StudentID, previous.Date); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", previous.StudentID).Msg("failed to record absence streak")
		}
	case next != models.AttendanceStatusAbsent && previous.Status == models.AttendanceStatusAbsent:
		if err := s.absences.ResetStreak(ctx, previous.StudentID); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", previous.StudentID).Msg("failed to reset absence streak")
		}
	}
}

// ListAtRisk surfaces students at or past the consecutive-absence threshold
// who have not been notified yet.
func (s *attendanceService) ListAtRisk(ctx context.Context) ([]dto.AtRiskStudent, error) {
	records, err := s.absences.ListAtRisk(ctx, s.threshold)
	if err != nil {
		return nil, err
	}

	atRisk := make([]dto.AtRiskStudent, 0, len(records))
	for _, record := range records {
		atRisk = append(atRisk, dto.AtRiskStudent{
			StudentID:       record.StudentID,
			StudentName:     record.Student.Name,
			ConsecutiveDays: record.ConsecutiveDays,
			LastAbsenceDate: record.LastAbsenceDate,
		})
	}

	return atRisk, nil
}

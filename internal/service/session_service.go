package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendly-go-api/internal/dto"
	"github.com/noah-isme/attendly-go-api/internal/repository"
)

// SessionService presents flat attendance rows as logical sessions.
type SessionService interface {
	List(ctx context.Context, payload dto.SessionListRequest) (dto.SessionListResponse, error)
	Roster(ctx context.Context, sessionID string) (dto.SessionRosterResponse, error)
}

type sessionService struct {
	attendance repository.AttendanceRepository
	batches    repository.BatchRepository
	subjects   repository.SubjectRepository
	students   repository.StudentRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewSessionService builds the session aggregator.
func NewSessionService(
	attendance repository.AttendanceRepository,
	batches repository.BatchRepository,
	subjects repository.SubjectRepository,
	students repository.StudentRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) SessionService {
	return &sessionService{
		attendance: attendance,
		batches:    batches,
		subjects:   subjects,
		students:   students,
		validator:  validate,
		logger:     logger.With().Str("component", "session_service").Logger(),
	}
}

// List groups attendance rows into sessions, resolves batch and subject
// names, then applies the subject-name substring filter and pagination in
// memory. The filter cannot run inside the grouping query because names
// live on other tables; pagination has to follow the filter to keep page
// counts honest. A caller with no recorded sessions gets an empty page,
// not an error.
func (s *sessionService) List(ctx context.Context, payload dto.SessionListRequest) (dto.SessionListResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionListResponse{}, err
	}

	rows, err := s.attendance.ListSessions(ctx, repository.SessionFilter{
		TeacherID: payload.TeacherID,
		BatchID:   payload.BatchID,
		SubjectID: payload.SubjectID,
		Date:      payload.Date,
	})
	if err != nil {
		return dto.SessionListResponse{}, err
	}

	sessions, err := s.resolveNames(ctx, rows)
	if err != nil {
		return dto.SessionListResponse{}, err
	}

	if search := strings.ToLower(strings.TrimSpace(payload.Subject)); search != "" {
		filtered := make([]dto.SessionResponse, 0, len(sessions))
		for _, session := range sessions {
			if strings.Contains(strings.ToLower(session.SubjectName), search) {
				filtered = append(filtered, session)
			}
		}
		sessions = filtered
	}

	total := int64(len(sessions))
	page := payload.Page
	if page <= 0 {
		page = 1
	}
	pageSize := payload.PageSize
	if pageSize > 0 {
		start := (page - 1) * pageSize
		if start >= len(sessions) {
			sessions = []dto.SessionResponse{}
		} else {
			end := start + pageSize
			if end > len(sessions) {
				end = len(sessions)
			}
			sessions = sessions[start:end]
		}
	}

	return dto.SessionListResponse{
		Items: sessions,
		Pagination: dto.Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
		},
	}, nil
}

func (s *sessionService) resolveNames(ctx context.Context, rows []repository.SessionRow) ([]dto.SessionResponse, error) {
	batchIDs := make([]uint, 0, len(rows))
	subjectIDs := make([]uint, 0, len(rows))
	seenBatch := make(map[uint]struct{})
	seenSubject := make(map[uint]struct{})
	for _, row := range rows {
		if _, ok := seenBatch[row.BatchID]; !ok {
			seenBatch[row.BatchID] = struct{}{}
			batchIDs = append(batchIDs, row.BatchID)
		}
		if _, ok := seenSubject[row.SubjectID]; !ok {
			seenSubject[row.SubjectID] = struct{}{}
			subjectIDs = append(subjectIDs, row.SubjectID)
		}
	}

	batchNames, err := s.batches.NamesByIDs(ctx, batchIDs)
	if err != nil {
		return nil, err
	}
	subjectNames, err := s.subjects.NamesByIDs(ctx, subjectIDs)
	if err != nil {
		return nil, err
	}

	sessions := make([]dto.SessionResponse, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, dto.SessionResponse{
			SessionID:    row.SessionID,
			Date:         row.Date,
			Time:         row.Time,
			BatchID:      row.BatchID,
			BatchName:    batchNames[row.BatchID],
			SubjectID:    row.SubjectID,
			SubjectName:  subjectNames[row.SubjectID],
			StudentCount: row.StudentCount,
		})
	}

	return sessions, nil
}

// Roster lists the per-student rows of one session with resolved names.
func (s *sessionService) Roster(ctx context.Context, sessionID string) (dto.SessionRosterResponse, error) {
	rows, err := s.attendance.ListBySession(ctx, sessionID)
	if err != nil {
		return dto.SessionRosterResponse{}, err
	}
	if len(rows) == 0 {
		return dto.SessionRosterResponse{}, ErrSessionNotFound
	}

	studentIDs := make([]uint, 0, len(rows))
	for _, row := range rows {
		studentIDs = append(studentIDs, row.StudentID)
	}
	students, err := s.students.GetByIDs(ctx, studentIDs)
	if err != nil {
		return dto.SessionRosterResponse{}, err
	}
	nameByID := make(map[uint]string, len(students))
	for _, student := range students {
		nameByID[student.ID] = student.Name
	}

	header := rows[0]
	batchNames, err := s.batches.NamesByIDs(ctx, []uint{header.BatchID})
	if err != nil {
		return dto.SessionRosterResponse{}, err
	}
	subjectNames, err := s.subjects.NamesByIDs(ctx, []uint{header.SubjectID})
	if err != nil {
		return dto.SessionRosterResponse{}, err
	}

	items := make([]dto.SessionRosterItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.SessionRosterItem{
			AttendanceID: row.ID,
			StudentID:    row.StudentID,
			StudentName:  nameByID[row.StudentID],
			Status:       string(row.Status),
			IsLocked:     row.IsLocked,
		})
	}

	return dto.SessionRosterResponse{
		Session: dto.SessionResponse{
			SessionID:    header.SessionID,
			Date:         header.Date,
			Time:         header.Time,
			BatchID:      header.BatchID,
			BatchName:    batchNames[header.BatchID],
			SubjectID:    header.SubjectID,
			SubjectName:  subjectNames[header.SubjectID],
			StudentCount: len(rows),
		},
		Rows: items,
	}, nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendly-go-api/internal/dto"
	"github.com/noah-isme/attendly-go-api/internal/models"
	"github.com/noah-isme/attendly-go-api/internal/repository"
)

// HistoryService serves a student's own attendance view.
type HistoryService interface {
	History(ctx context.Context, payload dto.HistoryRequest) (dto.HistoryResponse, error)
	Summary(ctx context.Context, studentID uint) (dto.SummaryResponse, error)
}

type historyService struct {
	attendance repository.AttendanceRepository
	batches    repository.BatchRepository
	subjects   repository.SubjectRepository
	validator  *validator.Validate
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
}

// NewHistoryService builds the student history service.
func NewHistoryService(
	attendance repository.AttendanceRepository,
	batches repository.BatchRepository,
	subjects repository.SubjectRepository,
	validate *validator.Validate,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) HistoryService {
	return &historyService{
		attendance: attendance,
		batches:    batches,
		subjects:   subjects,
		validator:  validate,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger.With().Str("component", "history_service").Logger(),
	}
}

// History lists the student's attendance rows newest first with resolved
// batch and subject names.
func (s *historyService) History(ctx context.Context, payload dto.HistoryRequest) (dto.HistoryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HistoryResponse{}, err
	}

	rows, total, err := s.attendance.ListByStudent(ctx, repository.HistoryFilter{
		StudentID: payload.StudentID,
		DateFrom:  payload.DateFrom,
		DateTo:    payload.DateTo,
		Page:      payload.Page,
		PageSize:  payload.PageSize,
	})
	if err != nil {
		return dto.HistoryResponse{}, err
	}

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
		return dto.HistoryResponse{}, err
	}
	subjectNames, err := s.subjects.NamesByIDs(ctx, subjectIDs)
	if err != nil {
		return dto.HistoryResponse{}, err
	}

	items := make([]dto.HistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.HistoryItem{
			AttendanceID: row.ID,
			SessionID:    row.SessionID,
			Date:         row.Date,
			Time:         row.Time,
			Status:       string(row.Status),
			IsLocked:     row.IsLocked,
			SubjectID:    row.SubjectID,
			SubjectName:  subjectNames[row.SubjectID],
			BatchID:      row.BatchID,
			BatchName:    batchNames[row.BatchID],
		})
	}

	page := payload.Page
	if page <= 0 {
		page = 1
	}

	return dto.HistoryResponse{
		Items: items,
		Pagination: dto.Pagination{
			Page:       page,
			PageSize:   payload.PageSize,
			TotalItems: total,
		},
	}, nil
}

// Summary aggregates per-subject attendance counts and percentages. The
// result is cached for the configured TTL; staleness up to the TTL is
// acceptable for a dashboard number.
func (s *historyService) Summary(ctx context.Context, studentID uint) (dto.SummaryResponse, error) {
	cacheKey := fmt.Sprintf("summary:student:%d", studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.SummaryResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("summary cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read summary cache")
		}
	}

	counts, err := s.attendance.SummaryByStudent(ctx, studentID)
	if err != nil {
		return dto.SummaryResponse{}, err
	}

	response, err := s.buildSummary(ctx, counts)
	if err != nil {
		return dto.SummaryResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store summary cache")
			}
		}
	}

	return response, nil
}

func (s *historyService) buildSummary(ctx context.Context, counts []repository.StatusCount) (dto.SummaryResponse, error) {
	bySubject := make(map[uint]*dto.SubjectSummary)
	order := make([]uint, 0)

	for _, count := range counts {
		summary, ok := bySubject[count.SubjectID]
		if !ok {
			summary = &dto.SubjectSummary{SubjectID: count.SubjectID}
			bySubject[count.SubjectID] = summary
			order = append(order, count.SubjectID)
		}

		switch count.Status {
		case models.AttendanceStatusPresent:
			summary.Present += count.Count
		case models.AttendanceStatusAbsent:
			summary.Absent += count.Count
		case models.AttendanceStatusLate:
			summary.Late += count.Count
		}
		summary.Total += count.Count
	}

	subjectNames, err := s.subjects.NamesByIDs(ctx, order)
	if err != nil {
		return dto.SummaryResponse{}, err
	}

	overall := dto.SubjectSummary{}
	subjects := make([]dto.SubjectSummary, 0, len(order))
	for _, subjectID := range order {
		summary := bySubject[subjectID]
		summary.SubjectName = subjectNames[subjectID]
		if summary.Total > 0 {
			// Late counts as attended for the percentage.
			summary.Percent = float64(summary.Present+summary.Late) / float64(summary.Total) * 100
		}
		subjects = append(subjects, *summary)

		overall.Present += summary.Present
		overall.Absent += summary.Absent
		overall.Late += summary.Late
		overall.Total += summary.Total
	}

	if overall.Total > 0 {
		overall.Percent = float64(overall.Present+overall.Late) / float64(overall.Total) * 100
	}

	return dto.SummaryResponse{
		Subjects: subjects,
		Overall:  overall,
	}, nil
}

package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/attendly-go-api/internal/dto"
	"github.com/noah-isme/attendly-go-api/internal/models"
	"github.com/noah-isme/attendly-go-api/internal/observability"
	"github.com/noah-isme/attendly-go-api/internal/repository"
)

// ErrEmptyImport indicates the uploaded CSV carried no data rows.
var ErrEmptyImport = errors.New("import file has no data rows")

// importHeader is the expected CSV column order.
var importHeader = []string{"name", "email", "roll_no", "parent_email", "batch"}

// WelcomeMailer sends the onboarding mail for newly created students.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, recipient, studentName string) error
}

// ImportService ingests student rosters from CSV uploads.
type ImportService interface {
	ImportStudents(ctx context.Context, actor Actor, fileName string, reader io.Reader) (dto.ImportReport, error)
}

type importService struct {
	students    repository.StudentRepository
	batches     repository.BatchRepository
	jobs        repository.ImportJobRepository
	mailer      WelcomeMailer
	concurrency int
	logger      zerolog.Logger
	now         func() time.Time
}

// NewImportService builds the CSV import service. The concurrency limit
// bounds the welcome mail fan-out, not row processing, which stays
// sequential so the row order in the report matches the file.
func NewImportService(
	students repository.StudentRepository,
	batches repository.BatchRepository,
	jobs repository.ImportJobRepository,
	mailer WelcomeMailer,
	concurrency int,
	logger zerolog.Logger,
) ImportService {
	if concurrency <= 0 {
		concurrency = 6
	}
	return &importService{
		students:    students,
		batches:     batches,
		jobs:        jobs,
		mailer:      mailer,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "import_service").Logger(),
		now:         time.Now,
	}
}

// ImportStudents processes the file row by row. Each row succeeds or fails
// on its own; one malformed row never aborts the batch. Newly created
// students get a welcome mail, sent concurrently after the rows are
// settled. Mail failures are logged and counted but do not change the
// report.
func (s *importService) ImportStudents(ctx context.Context, actor Actor, fileName string, reader io.Reader) (dto.ImportReport, error) {
	records := csv.NewReader(reader)
	records.FieldsPerRecord = -1
	records.TrimLeadingSpace = true

	report := dto.ImportReport{Rows: []dto.ImportRowResult{}}
	var welcome []models.Student

	line := 0
	for {
		record, err := records.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line++
			report.Rows = append(report.Rows, dto.ImportRowResult{
				Row:     line,
				Outcome: dto.ImportOutcomeFailed,
				Reason:  "malformed CSV row",
			})
			report.Failed++
			observability.ImportRows().WithLabelValues(dto.ImportOutcomeFailed).Inc()
			continue
		}

		line++
		if line == 1 && isHeaderRow(record) {
			continue
		}

		result, created := s.importRow(ctx, line, record)
		report.Rows = append(report.Rows, result)
		switch result.Outcome {
		case dto.ImportOutcomeCreated:
			report.Created++
		case dto.ImportOutcomeUpdated:
			report.Updated++
		default:
			report.Failed++
		}
		observability.ImportRows().WithLabelValues(result.Outcome).Inc()

		if created != nil {
			welcome = append(welcome, *created)
		}
	}

	report.TotalRows = len(report.Rows)
	if report.TotalRows == 0 {
		return dto.ImportReport{}, ErrEmptyImport
	}

	s.sendWelcomeMails(ctx, welcome)

	job, err := s.persistJob(ctx, actor, fileName, report)
	if err != nil {
		return dto.ImportReport{}, err
	}
	report.JobID = job.ID

	s.logger.Info().
		Uint("job_id", job.ID).
		Int("total", report.TotalRows).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("failed", report.Failed).
		Msg("student import completed")

	return report, nil
}

// importRow upserts a single student by email. It returns the created
// model when a row produced a new student, so the caller can queue the
// welcome mail.
func (s *importService) importRow(ctx context.Context, line int, record []string) (dto.ImportRowResult, *models.Student) {
	result := dto.ImportRowResult{Row: line}

	if len(record) < len(importHeader) {
		result.Outcome = dto.ImportOutcomeFailed
		result.Reason = fmt.Sprintf("expected %d columns, got %d", len(importHeader), len(record))
		return result, nil
	}

	name := strings.TrimSpace(record[0])
	email := strings.ToLower(strings.TrimSpace(record[1]))
	rollNo := strings.TrimSpace(record[2])
	parentEmail := strings.ToLower(strings.TrimSpace(record[3]))
	batchName := strings.TrimSpace(record[4])
	result.Email = email

	if name == "" || email == "" {
		result.Outcome = dto.ImportOutcomeFailed
		result.Reason = "name and email are required"
		return result, nil
	}
	if !strings.Contains(email, "@") {
		result.Outcome = dto.ImportOutcomeFailed
		result.Reason = "invalid email"
		return result, nil
	}

	var batch *models.Batch
	if batchName != "" {
		found, err := s.batches.GetByName(ctx, batchName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Outcome = dto.ImportOutcomeFailed
				result.Reason = fmt.Sprintf("batch %q not found", batchName)
				return result, nil
			}
			result.Outcome = dto.ImportOutcomeFailed
			result.Reason = "batch lookup failed"
			return result, nil
		}
		batch = &found
	}

	existing, err := s.students.GetByEmail(ctx, email)
	switch {
	case err == nil:
		existing.Name = name
		if rollNo != "" {
			existing.RollNo = rollNo
		}
		if parentEmail != "" {
			existing.ParentEmail = parentEmail
		}
		if err := s.students.Update(ctx, &existing); err != nil {
			result.Outcome = dto.ImportOutcomeFailed
			result.Reason = "update failed"
			return result, nil
		}
		if batch != nil {
			if err := s.batches.AddStudent(ctx, batch.ID, existing.ID); err != nil {
				s.logger.Warn().Err(err).Uint("student_id", existing.ID).Msg("failed to attach imported student to batch")
			}
		}
		result.Outcome = dto.ImportOutcomeUpdated
		return result, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		student := models.Student{
			Name:        name,
			Email:       email,
			RollNo:      rollNo,
			ParentEmail: parentEmail,
			Active:      true,
		}
		if err := s.students.Create(ctx, &student); err != nil {
			result.Outcome = dto.ImportOutcomeFailed
			result.Reason = "create failed"
			return result, nil
		}
		if batch != nil {
			if err := s.batches.AddStudent(ctx, batch.ID, student.ID); err != nil {
				s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("failed to attach imported student to batch")
			}
		}
		result.Outcome = dto.ImportOutcomeCreated
		return result, &student

	default:
		result.Outcome = dto.ImportOutcomeFailed
		result.Reason = "lookup failed"
		return result, nil
	}
}

func (s *importService) sendWelcomeMails(ctx context.Context, students []models.Student) {
	if s.mailer == nil || len(students) == 0 {
		return
	}

	var failed int
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for _, student := range students {
		student := student
		group.Go(func() error {
			if err := s.mailer.SendWelcome(groupCtx, student.Email, student.Name); err != nil {
				s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("welcome mail failed")
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = group.Wait()

	if failed > 0 {
		s.logger.Warn().Int("failed", failed).Int("total", len(students)).Msg("some welcome mails failed")
	}
}

func (s *importService) persistJob(ctx context.Context, actor Actor, fileName string, report dto.ImportReport) (models.ImportJob, error) {
	raw, err := json.Marshal(report.Rows)
	if err != nil {
		return models.ImportJob{}, err
	}

	job := models.ImportJob{
		UploadedBy:  actor.ID,
		FileName:    fileName,
		TotalRows:   report.TotalRows,
		Created:     report.Created,
		Updated:     report.Updated,
		Failed:      report.Failed,
		Report:      datatypes.JSON(raw),
		CompletedAt: s.now(),
	}
	if err := s.jobs.Create(ctx, &job); err != nil {
		return models.ImportJob{}, err
	}

	return job, nil
}

func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(record[0]), importHeader[0])
}

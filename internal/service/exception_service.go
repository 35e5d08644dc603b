package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/attendly-go-api/internal/dto"
	"github.com/noah-isme/attendly-go-api/internal/models"
	"github.com/noah-isme/attendly-go-api/internal/observability"
	"github.com/noah-isme/attendly-go-api/internal/repository"
)

var (
	// ErrExceptionNotFound indicates the requested exception does not exist.
	ErrExceptionNotFound = errors.New("exception not found")
	// ErrExceptionDecided indicates the exception already left the pending state.
	ErrExceptionDecided = errors.New("exception already decided")
	// ErrProofTooLarge indicates the proof exceeded the configured limit.
	ErrProofTooLarge = errors.New("proof file exceeds maximum allowed size")
	// ErrProofTypeNotAllowed indicates the proof MIME type is not permitted.
	ErrProofTypeNotAllowed = errors.New("proof file type not allowed")
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ExceptionService exposes the absence justification workflow.
type ExceptionService interface {
	Submit(ctx context.Context, actor Actor, payload dto.ExceptionCreateRequest, proof *multipart.FileHeader) (dto.ExceptionResponse, error)
	Review(ctx context.Context, actor Actor, id uint, payload dto.ExceptionReviewRequest) (dto.ExceptionResponse, error)
	List(ctx context.Context, payload dto.ExceptionListRequest) (dto.ExceptionListResponse, error)
}

type exceptionService struct {
	exceptions repository.ExceptionRepository
	attendance repository.AttendanceRepository
	validator  *validator.Validate
	uploader   FileUploader
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	maxProof   int64
	tracer     trace.Tracer
	now        func() time.Time
}

// NewExceptionService builds the exception workflow service.
func NewExceptionService(
	exceptions repository.ExceptionRepository,
	attendance repository.AttendanceRepository,
	validate *validator.Validate,
	uploader FileUploader,
	maxProofMB int,
	logger zerolog.Logger,
) ExceptionService {
	if maxProofMB <= 0 {
		maxProofMB = 5
	}
	return &exceptionService{
		exceptions: exceptions,
		attendance: attendance,
		validator:  validate,
		uploader:   uploader,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "exception_service").Logger(),
		maxProof:   int64(maxProofMB) * 1024 * 1024,
		tracer:     otel.Tracer("github.com/noah-isme/attendly-go-api/internal/service/exception"),
		now:        time.Now,
	}
}

// Submit files a student's absence justification. When a session already
// exists for the date, the exception is linked to it so a later decision
// can cascade; otherwise the link stays empty and a decision only records
// the status.
func (s *exceptionService) Submit(ctx context.Context, actor Actor, payload dto.ExceptionCreateRequest, proof *multipart.FileHeader) (dto.ExceptionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExceptionResponse{}, err
	}

	exception := models.AttendanceException{
		StudentID: actor.ID,
		Date:      payload.Date,
		Reason:    strings.TrimSpace(s.sanitizer.Sanitize(payload.Reason)),
		Status:    models.ExceptionStatusPending,
	}

	if sessionID, err := s.attendance.SessionForStudentDate(ctx, actor.ID, payload.Date); err == nil {
		exception.SessionID = &sessionID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ExceptionResponse{}, err
	}

	if proof != nil {
		url, err := s.uploadProof(ctx, proof)
		if err != nil {
			return dto.ExceptionResponse{}, err
		}
		exception.ProofURL = url
	}

	if err := s.exceptions.Create(ctx, &exception); err != nil {
		return dto.ExceptionResponse{}, err
	}

	s.logger.Info().Uint("exception_id", exception.ID).Uint("student_id", actor.ID).Msg("exception submitted")

	return dto.NewExceptionResponse(exception), nil
}

func (s *exceptionService) uploadProof(ctx context.Context, proof *multipart.FileHeader) (string, error) {
	ctx, span := s.tracer.Start(ctx, "exception.upload_proof")
	defer span.End()

	span.SetAttributes(
		attribute.String("proof.original_name", strings.TrimSpace(proof.Filename)),
		attribute.Int64("proof.request_size", proof.Size),
	)

	if proof.Size > s.maxProof {
		observability.ProofUploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrProofTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return "", ErrProofTooLarge
	}

	handle, err := proof.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return "", err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxProof+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return "", err
	}
	if int64(buf.Len()) > s.maxProof {
		observability.ProofUploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrProofTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return "", ErrProofTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("proof.detected_mime", mime.String()))
	if !allowedProofType(mime.String()) {
		observability.ProofUploadRejected().WithLabelValues("type").Inc()
		span.RecordError(ErrProofTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return "", ErrProofTypeNotAllowed
	}

	url, err := s.uploader.Upload(ctx, proof.Filename, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.ProofUploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return "", err
	}

	span.SetStatus(codes.Ok, "stored")
	return url, nil
}

// Only photographed or scanned documents are accepted as proof.
func allowedProofType(mime string) bool {
	switch {
	case strings.HasPrefix(mime, "image/jpeg"), strings.HasPrefix(mime, "image/png"), strings.HasPrefix(mime, "application/pdf"):
		return true
	default:
		return false
	}
}

// Review applies the admin decision and cascades it onto the matching
// attendance rows: approval flips them to present, rejection to absent,
// both permanently locked. The pending state is the only one that accepts
// a decision.
func (s *exceptionService) Review(ctx context.Context, actor Actor, id uint, payload dto.ExceptionReviewRequest) (dto.ExceptionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExceptionResponse{}, err
	}

	exception, err := s.exceptions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExceptionResponse{}, ErrExceptionNotFound
		}
		return dto.ExceptionResponse{}, err
	}

	if exception.Status.Decided() {
		return dto.ExceptionResponse{}, ErrExceptionDecided
	}

	decision := models.ExceptionStatus(payload.Decision)
	rowStatus := models.AttendanceStatusAbsent
	if decision == models.ExceptionStatusApproved {
		rowStatus = models.AttendanceStatusPresent
	}

	reviewedAt := s.now()
	exception.Status = decision
	exception.ReviewedByID = &actor.ID
	exception.ReviewedAt = &reviewedAt

	if err := s.exceptions.Review(ctx, &exception, rowStatus); err != nil {
		return dto.ExceptionResponse{}, err
	}

	s.logger.Info().
		Uint("exception_id", exception.ID).
		Str("decision", string(decision)).
		Bool("cascaded", exception.SessionID != nil).
		Msg("exception reviewed")

	return dto.NewExceptionResponse(exception), nil
}

func (s *exceptionService) List(ctx context.Context, payload dto.ExceptionListRequest) (dto.ExceptionListResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExceptionListResponse{}, err
	}

	exceptions, total, err := s.exceptions.List(ctx, repository.ExceptionFilter{
		StudentID: payload.StudentID,
		Status:    models.ExceptionStatus(payload.Status),
		Page:      payload.Page,
		PageSize:  payload.PageSize,
	})
	if err != nil {
		return dto.ExceptionListResponse{}, err
	}

	page := payload.Page
	if page <= 0 {
		page = 1
	}

	return dto.ExceptionListResponse{
		Items: dto.NewExceptionResponseSlice(exceptions),
		Pagination: dto.Pagination{
			Page:       page,
			PageSize:   payload.PageSize,
			TotalItems: total,
		},
	}, nil
}

package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendly-go-api/internal/dto"
	"github.com/noah-isme/attendly-go-api/internal/models"
)

type exceptionFixture struct {
	exceptions *fakeExceptionRepo
	attendance *fakeAttendanceRepo
	uploader   *stubUploader
	service    ExceptionService
}

func newExceptionFixture(t *testing.T) *exceptionFixture {
	t.Helper()

	attendance := &fakeAttendanceRepo{}
	exceptions := &fakeExceptionRepo{attendance: attendance}
	uploader := &stubUploader{url: "https://cdn.example.com/proofs/x.jpg"}

	svc := NewExceptionService(exceptions, attendance, testValidator(), uploader, 5, zerolog.Nop())

	return &exceptionFixture{
		exceptions: exceptions,
		attendance: attendance,
		uploader:   uploader,
		service:    svc,
	}
}

// makeFileHeader builds a real multipart.FileHeader by round-tripping the
// payload through an HTTP request, the same way fiber hands it to handlers.
func makeFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("proof", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	return req.MultipartForm.File["proof"][0]
}

// jpegHeader is enough of a JPEG for content sniffing.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00}

func TestSubmitSanitizesReasonAndLinksSession(t *testing.T) {
	f := newExceptionFixture(t)
	f.attendance.rows = []models.Attendance{
		{ID: 1, SessionID: "s1", Date: "2026-03-02", StudentID: 5, Status: models.AttendanceStatusAbsent},
	}

	resp, err := f.service.Submit(context.Background(), Actor{ID: 5, Role: models.RoleStudent}, dto.ExceptionCreateRequest{
		Date:   "2026-03-02",
		Reason: "I was at the <script>alert(1)</script> dentist all morning",
	}, nil)
	require.NoError(t, err)
	require.NotContains(t, resp.Reason, "<script>")
	require.Contains(t, resp.Reason, "dentist")
	require.NotNil(t, resp.SessionID)
	require.Equal(t, "s1", *resp.SessionID)
	require.Equal(t, string(models.ExceptionStatusPending), resp.Status)
}

func TestSubmitWithoutSessionLeavesLinkEmpty(t *testing.T) {
	f := newExceptionFixture(t)

	resp, err := f.service.Submit(context.Background(), Actor{ID: 5, Role: models.RoleStudent}, dto.ExceptionCreateRequest{
		Date:   "2026-03-02",
		Reason: "Family emergency, had to travel home",
	}, nil)
	require.NoError(t, err)
	require.Nil(t, resp.SessionID)
}

func TestSubmitStoresProof(t *testing.T) {
	f := newExceptionFixture(t)

	proof := makeFileHeader(t, "note.jpg", jpegHeader)
	resp, err := f.service.Submit(context.Background(), Actor{ID: 5, Role: models.RoleStudent}, dto.ExceptionCreateRequest{
		Date:   "2026-03-02",
		Reason: "Medical appointment, note attached",
	}, proof)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/proofs/x.jpg", resp.ProofURL)
}

func TestSubmitRejectsDisallowedProofType(t *testing.T) {
	f := newExceptionFixture(t)

	proof := makeFileHeader(t, "malware.exe", []byte("MZ\x90\x00\x03\x00\x00\x00"))
	_, err := f.service.Submit(context.Background(), Actor{ID: 5, Role: models.RoleStudent}, dto.ExceptionCreateRequest{
		Date:   "2026-03-02",
		Reason: "Medical appointment, note attached",
	}, proof)
	require.ErrorIs(t, err, ErrProofTypeNotAllowed)
}

func TestSubmitRejectsOversizedProof(t *testing.T) {
	attendance := &fakeAttendanceRepo{}
	exceptions := &fakeExceptionRepo{attendance: attendance}
	// 1 MB limit for the test to keep the payload small
	svc := NewExceptionService(exceptions, attendance, testValidator(), &stubUploader{}, 1, zerolog.Nop())

	payload := append(append([]byte{}, jpegHeader...), bytes.Repeat([]byte{0}, 2<<20)...)
	proof := makeFileHeader(t, "huge.jpg", payload)
	_, err := svc.Submit(context.Background(), Actor{ID: 5, Role: models.RoleStudent}, dto.ExceptionCreateRequest{
		Date:   "2026-03-02",
		Reason: "Medical appointment, note attached",
	}, proof)
	require.ErrorIs(t, err, ErrProofTooLarge)
}

func TestReviewApprovalCascadesToAttendance(t *testing.T) {
	f := newExceptionFixture(t)
	sessionID := "s1"
	f.attendance.rows = []models.Attendance{
		{ID: 1, SessionID: sessionID, Date: "2026-03-02", StudentID: 5, Status: models.AttendanceStatusAbsent},
		{ID: 2, SessionID: sessionID, Date: "2026-03-02", StudentID: 6, Status: models.AttendanceStatusPresent},
	}
	f.exceptions.exceptions = []models.AttendanceException{
		{ID: 1, StudentID: 5, Date: "2026-03-02", Status: models.ExceptionStatusPending, SessionID: &sessionID},
	}

	resp, err := f.service.Review(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, 1, dto.ExceptionReviewRequest{Decision: "approved"})
	require.NoError(t, err)
	require.Equal(t, string(models.ExceptionStatusApproved), resp.Status)
	require.NotNil(t, resp.ReviewedBy)
	require.Equal(t, uint(1), *resp.ReviewedBy)
	require.NotNil(t, resp.ReviewedAt)
	require.WithinDuration(t, time.Now(), *resp.ReviewedAt, time.Minute)

	require.Equal(t, models.AttendanceStatusPresent, f.attendance.rows[0].Status)
	require.True(t, f.attendance.rows[0].IsLocked)
	// the other student's row is untouched
	require.False(t, f.attendance.rows[1].IsLocked)
}

func TestReviewRejectionLocksAbsence(t *testing.T) {
	f := newExceptionFixture(t)
	sessionID := "s1"
	f.attendance.rows = []models.Attendance{
		{ID: 1, SessionID: sessionID, Date: "2026-03-02", StudentID: 5, Status: models.AttendanceStatusAbsent},
	}
	f.exceptions.exceptions = []models.AttendanceException{
		{ID: 1, StudentID: 5, Date: "2026-03-02", Status: models.ExceptionStatusPending, SessionID: &sessionID},
	}

	resp, err := f.service.Review(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, 1, dto.ExceptionReviewRequest{Decision: "rejected"})
	require.NoError(t, err)
	require.Equal(t, string(models.ExceptionStatusRejected), resp.Status)
	require.Equal(t, models.AttendanceStatusAbsent, f.attendance.rows[0].Status)
	require.True(t, f.attendance.rows[0].IsLocked)
}

func TestReviewWithoutSessionOnlyRecordsDecision(t *testing.T) {
	f := newExceptionFixture(t)
	f.exceptions.exceptions = []models.AttendanceException{
		{ID: 1, StudentID: 5, Date: "2026-03-02", Status: models.ExceptionStatusPending},
	}

	resp, err := f.service.Review(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, 1, dto.ExceptionReviewRequest{Decision: "approved"})
	require.NoError(t, err)
	require.Equal(t, string(models.ExceptionStatusApproved), resp.Status)
	require.Empty(t, f.attendance.rows)
}

func TestReviewRejectsDecidedException(t *testing.T) {
	f := newExceptionFixture(t)
	f.exceptions.exceptions = []models.AttendanceException{
		{ID: 1, StudentID: 5, Date: "2026-03-02", Status: models.ExceptionStatusApproved},
	}

	_, err := f.service.Review(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, 1, dto.ExceptionReviewRequest{Decision: "rejected"})
	require.ErrorIs(t, err, ErrExceptionDecided)
}

func TestReviewUnknownException(t *testing.T) {
	f := newExceptionFixture(t)

	_, err := f.service.Review(context.Background(), Actor{ID: 1, Role: models.RoleAdmin}, 9, dto.ExceptionReviewRequest{Decision: "approved"})
	require.ErrorIs(t, err, ErrExceptionNotFound)
}

func TestListScopesByStudent(t *testing.T) {
	f := newExceptionFixture(t)
	f.exceptions.exceptions = []models.AttendanceException{
		{ID: 1, StudentID: 5, Date: "2026-03-02", Status: models.ExceptionStatusPending},
		{ID: 2, StudentID: 6, Date: "2026-03-02", Status: models.ExceptionStatusPending},
	}

	resp, err := f.service.List(context.Background(), dto.ExceptionListRequest{StudentID: 5})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, uint(5), resp.Items[0].StudentID)
}

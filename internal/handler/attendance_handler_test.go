package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendly-go-api/internal/dto"
	"github.com/noah-isme/attendly-go-api/internal/service"
)

type stubAttendanceService struct {
	takeResponse dto.TakeAttendanceResponse
	takeErr      error
	bulkResponse dto.BulkUpdateResponse
	bulkErr      error
	lastActor    service.Actor
}

func (s *stubAttendanceService) Take(_ context.Context, actor service.Actor, _ dto.TakeAttendanceRequest) (dto.TakeAttendanceResponse, error) {
	s.lastActor = actor
	return s.takeResponse, s.takeErr
}

func (s *stubAttendanceService) BulkUpdate(_ context.Context, _ dto.BulkUpdateRequest) (dto.BulkUpdateResponse, error) {
	return s.bulkResponse, s.bulkErr
}

func (s *stubAttendanceService) ListAtRisk(_ context.Context) ([]dto.AtRiskStudent, error) {
	return nil, nil
}

type stubSessionService struct {
	listResponse   dto.SessionListResponse
	rosterResponse dto.SessionRosterResponse
	rosterErr      error
}

func (s *stubSessionService) List(_ context.Context, _ dto.SessionListRequest) (dto.SessionListResponse, error) {
	return s.listResponse, nil
}

func (s *stubSessionService) Roster(_ context.Context, _ string) (dto.SessionRosterResponse, error) {
	return s.rosterResponse, s.rosterErr
}

func attendanceTestApp(attendance *stubAttendanceService, sessions *stubSessionService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(10))
		c.Locals("user_role", "teacher")
		return c.Next()
	})
	h := NewAttendanceHandler(attendance, sessions, zerolog.Nop())
	h.Register(app.Group("/attendance"))
	return app
}

func TestTakeAttendanceEndpointReturnsCreated(t *testing.T) {
	attendance := &stubAttendanceService{
		takeResponse: dto.TakeAttendanceResponse{SessionID: "s1", MarkedCount: 2, MailedCount: 1},
	}
	app := attendanceTestApp(attendance, &stubSessionService{})

	payload, err := json.Marshal(dto.TakeAttendanceRequest{
		BatchID:   4,
		SubjectID: 7,
		Date:      "2026-03-02",
		Time:      "09:00",
		Entries: []dto.AttendanceEntry{
			{StudentID: 1, Status: "present"},
			{StudentID: 2, Status: "absent"},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/attendance", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(10), attendance.lastActor.ID)

	var body struct {
		Success bool                       `json:"success"`
		Data    dto.TakeAttendanceResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.Equal(t, "s1", body.Data.SessionID)
	require.Equal(t, 2, body.Data.MarkedCount)
}

func TestTakeAttendanceEndpointMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not a teacher", service.ErrNotTeacher, fiber.StatusForbidden},
		{"duplicate student", service.ErrDuplicateStudent, fiber.StatusBadRequest},
		{"unknown student", service.ErrStudentUnknown, fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := attendanceTestApp(&stubAttendanceService{takeErr: tc.err}, &stubSessionService{})

			req := httptest.NewRequest(http.MethodPost, "/attendance", bytes.NewReader([]byte(`{"batch_id":4,"subject_id":7,"date":"2026-03-02","time":"09:00","entries":[{"student_id":1,"status":"present"}]}`)))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestSessionRosterEndpointReturnsNotFound(t *testing.T) {
	app := attendanceTestApp(&stubAttendanceService{}, &stubSessionService{rosterErr: service.ErrSessionNotFound})

	req := httptest.NewRequest(http.MethodGet, "/attendance/sessions/unknown", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListSessionsEndpointReturnsMeta(t *testing.T) {
	sessions := &stubSessionService{
		listResponse: dto.SessionListResponse{
			Items:      []dto.SessionResponse{{SessionID: "s1", Date: "2026-03-02"}},
			Pagination: dto.Pagination{Page: 1, PageSize: 10, TotalItems: 1},
		},
	}
	app := attendanceTestApp(&stubAttendanceService{}, sessions)

	req := httptest.NewRequest(http.MethodGet, "/attendance/sessions?page=1&page_size=10", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.SessionResponse `json:"data"`
		Meta dto.Pagination        `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	require.Equal(t, int64(1), body.Meta.TotalItems)
}

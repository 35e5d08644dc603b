package router_test

import (
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendly-go-api/internal/config"
	"github.com/noah-isme/attendly-go-api/internal/dto"
	"github.com/noah-isme/attendly-go-api/internal/handler"
	"github.com/noah-isme/attendly-go-api/internal/router"
	"github.com/noah-isme/attendly-go-api/internal/service"
)

type stubExceptionService struct{}

func (stubExceptionService) Submit(_ context.Context, _ service.Actor, _ dto.ExceptionCreateRequest, _ *multipart.FileHeader) (dto.ExceptionResponse, error) {
	return dto.ExceptionResponse{ID: 1, Status: "pending"}, nil
}

func (stubExceptionService) Review(_ context.Context, _ service.Actor, _ uint, _ dto.ExceptionReviewRequest) (dto.ExceptionResponse, error) {
	return dto.ExceptionResponse{ID: 1, Status: "approved"}, nil
}

func (stubExceptionService) List(_ context.Context, _ dto.ExceptionListRequest) (dto.ExceptionListResponse, error) {
	return dto.ExceptionListResponse{}, nil
}

func exceptionApp(role string) *fiber.App {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "attendly-test"}, router.Dependencies{
		ExceptionHandler: handler.NewExceptionHandler(stubExceptionService{}, zerolog.Nop()),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(5))
			c.Locals("user_role", role)
			return c.Next()
		},
	})
	return app
}

func TestExceptionSubmissionIsStudentOnly(t *testing.T) {
	cases := []struct {
		role   string
		status int
	}{
		{"student", fiber.StatusCreated},
		{"teacher", fiber.StatusForbidden},
		{"admin", fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			app := exceptionApp(tc.role)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/exceptions", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestExceptionListingRemainsOpenToStaff(t *testing.T) {
	for _, role := range []string{"student", "teacher", "admin"} {
		t.Run(role, func(t *testing.T) {
			app := exceptionApp(role)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/exceptions", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)
		})
	}
}

func TestExceptionReviewIsAdminOnly(t *testing.T) {
	cases := []struct {
		role   string
		status int
	}{
		{"admin", fiber.StatusOK},
		{"teacher", fiber.StatusForbidden},
		{"student", fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			app := exceptionApp(tc.role)

			body := strings.NewReader(`{"decision":"approved"}`)
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/exceptions/1/review", body)
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/attendly-go-api/internal/config"
	"github.com/noah-isme/attendly-go-api/internal/handler"
	"github.com/noah-isme/attendly-go-api/internal/middleware"
	"github.com/noah-isme/attendly-go-api/internal/models"
	"github.com/noah-isme/attendly-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AttendanceHandler *handler.AttendanceHandler
	ExceptionHandler  *handler.ExceptionHandler
	HistoryHandler    *handler.HistoryHandler
	TeacherHandler    *handler.TeacherHandler
	StudentHandler    *handler.StudentHandler
	BatchHandler      *handler.BatchHandler
	SubjectHandler    *handler.SubjectHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	staffOnly := middleware.RequireRole(models.RoleAdmin, models.RoleTeacher)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	studentOnly := middleware.RequireRole(models.RoleStudent)

	// Attendance intake & session views for staff
	if deps.AttendanceHandler != nil {
		attendance := api.Group("/attendance", jwtMiddleware, staffOnly)
		deps.AttendanceHandler.Register(attendance)
	}

	// Exception workflow: submission by students only, listing role scoped
	// inside the handler, review behind the admin gate
	if deps.ExceptionHandler != nil {
		exceptions := api.Group("/exceptions", jwtMiddleware)
		deps.ExceptionHandler.Register(exceptions)

		submit := api.Group("/exceptions", jwtMiddleware, studentOnly,
			middleware.RateLimit("exceptions", 20, time.Minute))
		deps.ExceptionHandler.RegisterSubmit(submit)

		review := api.Group("/exceptions", jwtMiddleware, adminOnly)
		deps.ExceptionHandler.RegisterReview(review)
	}

	// Student self-service portal
	if deps.HistoryHandler != nil {
		me := api.Group("/me", jwtMiddleware, studentOnly)
		deps.HistoryHandler.Register(me)
	}

	// Admin roster management
	admin := api.Group("/admin", jwtMiddleware, adminOnly)
	if deps.TeacherHandler != nil {
		deps.TeacherHandler.Register(admin.Group("/teachers"))
	}
	if deps.StudentHandler != nil {
		students := admin.Group("/students")
		deps.StudentHandler.Register(students)
		deps.StudentHandler.RegisterImport(admin.Group("/students",
			middleware.RateLimit("import", 5, time.Minute)))
	}
	if deps.BatchHandler != nil {
		deps.BatchHandler.Register(admin.Group("/batches"))
	}
	if deps.SubjectHandler != nil {
		deps.SubjectHandler.Register(admin.Group("/subjects"))
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendly-go-api/internal/config"
	"github.com/noah-isme/attendly-go-api/internal/database"
	"github.com/noah-isme/attendly-go-api/internal/handler"
	"github.com/noah-isme/attendly-go-api/internal/middleware"
	"github.com/noah-isme/attendly-go-api/internal/models"
	"github.com/noah-isme/attendly-go-api/internal/repository"
	"github.com/noah-isme/attendly-go-api/internal/router"
	"github.com/noah-isme/attendly-go-api/internal/service"
	cloud "github.com/noah-isme/attendly-go-api/pkg/cloudinary"
	"github.com/noah-isme/attendly-go-api/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.Batch{},
		&models.Subject{},
		&models.Attendance{},
		&models.AttendanceException{},
		&models.AbsenceNotification{},
		&models.ImportJob{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	mailService, err := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create mailer: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	attendanceRepo := repository.NewAttendanceRepository(db)
	exceptionRepo := repository.NewExceptionRepository(db)
	absenceRepo := repository.NewAbsenceNotificationRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	userRepo := repository.NewUserRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	importJobRepo := repository.NewImportJobRepository(db)

	attendanceService := service.NewAttendanceService(attendanceRepo, exceptionRepo, absenceRepo, studentRepo, subjectRepo, userRepo, validate, mailService, cfg.AbsenceThreshold, logger)
	sessionService := service.NewSessionService(attendanceRepo, batchRepo, subjectRepo, studentRepo, validate, logger)
	exceptionService := service.NewExceptionService(exceptionRepo, attendanceRepo, validate, uploader, cfg.MaxProofSizeMB, logger)
	historyService := service.NewHistoryService(attendanceRepo, batchRepo, subjectRepo, validate, redisClient, cfg.SummaryCacheTTL, logger)
	studentService := service.NewStudentService(studentRepo, validate, logger)
	teacherService := service.NewTeacherService(userRepo, validate, logger)
	batchService := service.NewBatchService(batchRepo, studentRepo, subjectRepo, validate, logger)
	subjectService := service.NewSubjectService(subjectRepo, userRepo, validate, logger)
	importService := service.NewImportService(studentRepo, batchRepo, importJobRepo, mailService, cfg.ImportConcurrency, logger)

	attendanceHandler := handler.NewAttendanceHandler(attendanceService, sessionService, logger)
	exceptionHandler := handler.NewExceptionHandler(exceptionService, logger)
	historyHandler := handler.NewHistoryHandler(historyService, logger)
	teacherHandler := handler.NewTeacherHandler(teacherService, logger)
	studentHandler := handler.NewStudentHandler(studentService, importService, logger)
	batchHandler := handler.NewBatchHandler(batchService, logger)
	subjectHandler := handler.NewSubjectHandler(subjectService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AttendanceHandler: attendanceHandler,
		ExceptionHandler:  exceptionHandler,
		HistoryHandler:    historyHandler,
		TeacherHandler:    teacherHandler,
		StudentHandler:    studentHandler,
		BatchHandler:      batchHandler,
		SubjectHandler:    subjectHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/risetutor-api/internal/config"
	"github.com/noah-isme/risetutor-api/internal/database"
	"github.com/noah-isme/risetutor-api/internal/handler"
	"github.com/noah-isme/risetutor-api/internal/middleware"
	"github.com/noah-isme/risetutor-api/internal/observability"
	"github.com/noah-isme/risetutor-api/internal/repository"
	"github.com/noah-isme/risetutor-api/internal/router"
	"github.com/noah-isme/risetutor-api/internal/service"
	cloud "github.com/noah-isme/risetutor-api/pkg/cloudinary"
	"github.com/noah-isme/risetutor-api/pkg/events"
	"github.com/noah-isme/risetutor-api/pkg/mailer"
	"github.com/noah-isme/risetutor-api/pkg/razorpay"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "risetutor-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, otp resend cooldown disabled")
	}

	assets, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create cloudinary client")
	}

	gateway, err := razorpay.New(razorpay.Config{KeyID: cfg.RazorpayKeyID, KeySecret: cfg.RazorpayKeySecret}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create payment gateway")
	}

	publisher := buildPublisher(cfg, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close event publishers")
		}
	}()

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	tempRepo := repository.NewTemporaryAdmissionRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	uploadRepo := repository.NewUploadRepository(db)
	testRepo := repository.NewTestRepository(db)
	resultRepo := repository.NewTestResultRepository(db)
	liveClassRepo := repository.NewLiveClassRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	admissionService := service.NewAdmissionService(service.AdmissionDependencies{
		Temporary:  tempRepo,
		Students:   studentRepo,
		Admissions: admissionRepo,
		Uploads:    uploadRepo,
		Photos:     service.NewPhotoService(assets.WithFolder("admissions"), uploadRepo, cfg.UploadMaxMB, logger),
		Gateway:    gateway,
		Notifier:   service.NewMailNotifier(buildMailer(cfg, logger), logger),
		Publisher:  publisher,
		Cache:      redisClient,
		Validator:  validate,
	}, service.AdmissionSettings{
		Fee:            cfg.AdmissionFee,
		Currency:       cfg.AdmissionCurrency,
		AdmissionTTL:   cfg.AdmissionTTL,
		OTPTTL:         cfg.OTPTTL,
		ResendCooldown: cfg.OTPResendCooldown,
	}, logger)

	authService := service.NewAuthService(studentRepo, adminRepo, validate, service.AuthSettings{
		Secret:     cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
	}, logger)
	if err := authService.EnsureAdmin(context.Background(), "Administrator", cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap admin account")
	}

	testService := service.NewTestService(testRepo, resultRepo, studentRepo, publisher, validate, logger)
	activityService := service.NewActivityService(activityRepo, logger)
	testAdminService := service.NewTestAdminService(testRepo, resultRepo, studentRepo, activityService, validate, logger)
	liveClassService := service.NewLiveClassService(liveClassRepo, activityService, validate, logger)
	adminStudentService := service.NewAdminStudentService(studentRepo, admissionService, repository.NewCounterRepository(db), logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AdmissionHandler:    handler.NewAdmissionHandler(admissionService, logger),
		AuthHandler:         handler.NewAuthHandler(authService, cfg.CookieSecure, logger),
		TestHandler:         handler.NewTestHandler(testService, logger),
		AdminTestHandler:    handler.NewAdminTestHandler(testAdminService, logger),
		LiveClassHandler:    handler.NewLiveClassHandler(liveClassService, logger),
		AdminStudentHandler: handler.NewAdminStudentHandler(adminStudentService, logger),
		ActivityHandler:     handler.NewAdminActivityHandler(activityService, logger),
		HealthProbes:        healthProbes(db, redisClient),
		SessionMiddleware:   middleware.SessionAuth(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func buildMailer(cfg config.Config, logger zerolog.Logger) mailer.Sender {
	if cfg.SendgridAPIKey == "" {
		logger.Warn().Msg("sendgrid not configured, emails will be logged only")
		return mailer.NewLogSender(logger)
	}

	sender, err := mailer.NewSendGrid(mailer.Config{
		APIKey:      cfg.SendgridAPIKey,
		FromName:    cfg.MailFromName,
		FromAddress: cfg.MailFromAddress,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create sendgrid client")
	}
	return sender
}

func buildPublisher(cfg config.Config, logger zerolog.Logger) events.Publisher {
	var publishers events.Multi
	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.NATSURL, cfg.EventsSubject)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		publishers = append(publishers, nc)
	}
	if len(cfg.KafkaBrokers) > 0 {
		publishers = append(publishers, events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic))
	}

	switch len(publishers) {
	case 0:
		return events.Nop{}
	case 1:
		return publishers[0]
	default:
		return publishers
	}
}

func healthProbes(db *gorm.DB, redisClient *redis.Client) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}

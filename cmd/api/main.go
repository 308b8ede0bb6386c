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
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-engage-api/internal/config"
	"github.com/noah-isme/campus-engage-api/internal/database"
	"github.com/noah-isme/campus-engage-api/internal/handler"
	"github.com/noah-isme/campus-engage-api/internal/middleware"
	"github.com/noah-isme/campus-engage-api/internal/models"
	"github.com/noah-isme/campus-engage-api/internal/repository"
	"github.com/noah-isme/campus-engage-api/internal/router"
	"github.com/noah-isme/campus-engage-api/internal/service"
	cloud "github.com/noah-isme/campus-engage-api/pkg/cloudinary"
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
		&models.Activity{},
		&models.EventSlot{},
		&models.Registration{},
		&models.Submission{},
		&models.PointLedger{},
		&models.Reward{},
		&models.Redemption{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, leaderboard caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not configured, domain events disabled")
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	eventRepo := repository.NewEventRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(auditLogRepo, logger)
	notifier := service.NewNATSNotifier(natsConn, cfg.EventChannelBase, logger)

	eventService := service.NewEventService(eventRepo, logger)
	submissionService := service.NewSubmissionService(submissionRepo, activityRepo, ledgerRepo, uploader, validate, cfg.EvidenceMaxSizeMB, logger)
	verificationService := service.NewVerificationService(submissionRepo, validate, auditService, notifier, logger)
	redemptionService := service.NewRedemptionService(rewardRepo, auditService, notifier, logger)
	pointsService := service.NewPointsService(ledgerRepo, redisClient, cfg.LeaderboardCacheTTL, logger)
	activityService := service.NewActivityService(activityRepo, validate, logger)

	eventHandler := handler.NewEventHandler(eventService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, verificationService, logger)
	rewardHandler := handler.NewRewardHandler(redemptionService, logger)
	pointsHandler := handler.NewPointsHandler(pointsService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:         &logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	router.Register(app, cfg, router.Dependencies{
		EventHandler:      eventHandler,
		SubmissionHandler: submissionHandler,
		RewardHandler:     rewardHandler,
		PointsHandler:     pointsHandler,
		ActivityHandler:   activityHandler,
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

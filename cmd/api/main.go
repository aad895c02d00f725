package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"sharenotes/cmd/internal/config"
	"sharenotes/cmd/internal/domain/policy"
	"sharenotes/cmd/internal/domain/sqlite"
	"sharenotes/cmd/internal/domain/sqlite/repository"
	"sharenotes/cmd/internal/http/handler"
	"sharenotes/cmd/internal/http/router"
	cognitoclient "sharenotes/cmd/internal/infrastructure/aws/cognito"
	"sharenotes/cmd/internal/infrastructure/aws/storage"
	"sharenotes/cmd/internal/infrastructure/aws/websocket"
	"sharenotes/cmd/internal/logging"
	"sharenotes/cmd/internal/service"
	"sharenotes/cmd/internal/service/jobs"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/uid"
	"sharenotes/cmd/internal/utils/validators"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	accessLog, logCloser := logging.Setup(cfg.LogLevel, cfg.LogFile)
	defer logCloser.Close()

	uid.Init(cfg.MachineID)
	validate := validators.New()

	if cfg.JWTSecret != "" {
		utils.InitHMAC([]byte(cfg.JWTSecret))
	} else if err := utils.InitJWKS(cfg.AWSRegion, cfg.CognitoUserPoolID); err != nil {
		return err
	}

	// Init SQLite
	db, err := sqlite.Init(cfg.DBPath)
	if err != nil {
		return err
	}

	// Optional AWS integrations, missing settings disable the matching features
	var cogClient cognitoclient.CognitoInterface
	if cfg.CognitoUserPoolID != "" {
		if cogClient, err = cognitoclient.NewCognitoClient(ctx, cfg.AWSRegion, cfg.CognitoUserPoolID, cfg.CognitoAppClientID); err != nil {
			return err
		}
	} else {
		log.Warn("cognito is not configured, signup and login are disabled")
	}

	var s3Client storage.S3Client
	if cfg.S3Bucket != "" {
		if s3Client, err = storage.NewStorageClient(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3BaseURL); err != nil {
			return err
		}
	} else {
		log.Warn("S3 bucket is not configured, avatar uploads are disabled")
	}

	var gateway websocket.GatewayClient = websocket.LogGatewayClient{}
	if cfg.GatewayEndpoint != "" {
		if gateway, err = websocket.NewAWSGatewayClient(ctx, cfg.GatewayEndpoint, cfg.AWSRegion); err != nil {
			return err
		}
	}

	// Repositories
	noteRepo := repository.NewNoteRepository(db)
	shareRepo := repository.NewShareRepository(db)
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	connRepo := repository.NewConnectionRepository(db)

	// Services
	sharePolicy := policy.NewSharePolicy()
	wsService := service.NewWebSocketService(connRepo, gateway, cfg.StoreTimeout)
	noteService := service.NewNoteService(noteRepo, shareRepo, sharePolicy, wsService, validate, cfg.StoreTimeout)
	shareService := service.NewShareService(noteRepo, shareRepo, userRepo, profileRepo, sharePolicy, wsService, validate, cfg.StoreTimeout)
	profileService := service.NewProfileService(profileRepo, userRepo, s3Client, policy.NewUserPolicy(), wsService, validate, cfg.StoreTimeout)
	userService := service.NewUserService(userRepo, profileRepo, validate, cogClient, cfg.StoreTimeout)
	editorService := service.NewEditorService(noteService, userRepo, wsService, validate, cfg.EditorDebounce)

	// Background jobs
	go jobs.NewConnectionCleaner(wsService).Start(ctx)
	go jobs.NewOrphanShareSweeper(shareRepo).Start(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{Output: accessLog}))
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("8M"))

	router.Register(e, &router.Routes{
		Notes:         handler.NewNoteDefault(noteService),
		Shares:        handler.NewShareDefault(shareService),
		Profiles:      handler.NewProfileDefault(profileService),
		Users:         handler.NewUserDefault(userService),
		Sockets:       handler.NewWSDefault(wsService, editorService),
		UserRepo:      userRepo,
		GatewaySecret: cfg.GatewaySecret,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(fmt.Sprintf(":%d", cfg.Port))
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("failed to shut down http server: %v", err)
	}

	// Edits buffered in socket sessions are saved before exiting.
	editorService.CloseAll()
	return nil
}

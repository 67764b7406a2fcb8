package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vlanman/api/handler"
	apiMiddleware "vlanman/api/middleware"
	"vlanman/api/routes"
	"vlanman/config"
	"vlanman/internal/repository"
	"vlanman/internal/service"
	"vlanman/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		logger.WithError(err).Warn("no .env file loaded")
	}

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}
	if cfg.Device.Host == "" {
		logger.Fatal("DEVICE_HOST is required")
	}

	db, err := config.ConnectionDb(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}

	validate := validator.New()
	clock := service.RealClock{}

	jwtManager := &utils.JWTManager{
		Secret:         []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: 15 * time.Minute,
	}

	userRepo := repository.NewUserRepository(db)
	vlanRepo := repository.NewVlanRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	device := service.NewSSHDevice(cfg.Device, logger)

	vlanService := service.NewVlanService(vlanRepo, activityRepo, device, clock, logger)
	authService := service.NewAuthService(
		userRepo,
		sessionRepo,
		activityRepo,
		jwtManager,
		clock,
		service.AuthConfig{SessionTimeout: cfg.SessionTimeout},
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	expirySweeper := &service.ExpirySweeper{
		Vlans:    vlanRepo,
		Service:  vlanService,
		Interval: cfg.ExpirySweepInterval,
		Clock:    clock,
		Log:      logger,
	}
	sessionSweeper := &service.SessionSweeper{
		Sessions: sessionRepo,
		Interval: cfg.SessionSweepInterval,
		Clock:    clock,
		Log:      logger,
	}
	go expirySweeper.Run(ctx)
	go sessionSweeper.Run(ctx)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authHandler := handler.NewAuthHandler(authService, vlanService, validate)
	vlanHandler := handler.NewVlanHandler(vlanService, validate)
	authMiddleware := apiMiddleware.AuthMiddleware{JWT: jwtManager, Auth: authService}
	router := routes.NewRouter(app, authHandler, vlanHandler, authMiddleware)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("shutdown")
		}
	}()

	logger.WithField("addr", cfg.HTTPAddr).Info("server started")
	if err := app.StartServer(server); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("server stopped")
	}
}

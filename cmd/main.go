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

	"fleetadmin/api/handler"
	apiMiddleware "fleetadmin/api/middleware"
	"fleetadmin/api/routes"
	"fleetadmin/config"
	"fleetadmin/internal/repository"
	"fleetadmin/internal/service"
	"fleetadmin/internal/utils"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if err := run(logger); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
	logger.Info("server stopped")
}

func run(logger *logrus.Logger) error {
	cfg := config.Load(logger)
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectionDb(cfg, logger)
	if err != nil {
		return err
	}

	ledger, closeLedger, err := buildLedger(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("otp ledger unavailable: %w", err)
	}
	defer closeLedger()
	logger.WithField("backend", cfg.OTPLedger).Info("otp ledger ready")

	accessManager := utils.JWTManager{
		Secret:         []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: cfg.AccessTokenTTL,
	}

	userRepo := repository.NewSystemUserRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	passwordHasher := service.BcryptPasswordHasher{}
	clock := service.RealClock{}

	var sender service.NotificationSender
	if cfg.ResendAPIKey != "" {
		sender = service.NewResendEmailSender(cfg.ResendAPIKey, cfg.EmailFrom)
	} else {
		logger.Warn("RESEND_API_KEY not set, otp emails will not be delivered")
	}

	authConfig := service.AuthConfig{
		AccessTokenTTL:         cfg.AccessTokenTTL,
		OTPTTL:                 cfg.OTPTTL,
		ConcealUnknownAccounts: cfg.ConcealUnknownAccounts,
	}
	resetService := service.NewPasswordResetService(
		userRepo,
		ledger,
		auditRepo,
		sender,
		passwordHasher,
		service.RandomCodeGenerator{},
		clock,
		logger,
		authConfig,
	)
	authService := service.NewAuthService(
		userRepo,
		auditRepo,
		passwordHasher,
		service.JWTAccessIssuer{Manager: &accessManager},
		clock,
		logger,
	)

	sweeper := service.OTPSweeper{
		Ledger:   ledger,
		Clock:    clock,
		Interval: cfg.OTPSweepInterval,
		Logger:   logger,
	}
	go sweeper.Run(ctx)

	validate := handler.NewValidator()
	authHandler := handler.NewAuthHandler(authService, validate, logger)
	resetHandler := handler.NewPasswordResetHandler(resetService, validate, logger)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status":  v.Status,
				"method":  v.Method,
				"uri":     v.URI,
				"ip":      v.RemoteIP,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{JWT: &accessManager}
	router := routes.NewRouter(app, authHandler, resetHandler, authMiddleware)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return serve(ctx, app, server, logger)
}

// serve runs the server until ctx is done or the listener fails.
func serve(ctx context.Context, app *echo.Echo, server *http.Server, logger logrus.FieldLogger) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", server.Addr).Info("server started")
		if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func buildLedger(ctx context.Context, cfg config.Config, db *gorm.DB) (repository.OTPLedger, func(), error) {
	switch cfg.OTPLedger {
	case config.LedgerRedis:
		client, err := config.ConnectionRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisOTPLedger(client, 0), func() { _ = client.Close() }, nil
	case config.LedgerMemory:
		return repository.NewMemoryOTPLedger(), func() {}, nil
	case config.LedgerPostgres:
		return repository.NewGormOTPLedger(db), func() {}, nil
	}
	return nil, nil, errors.New("unknown OTP_LEDGER " + cfg.OTPLedger)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Perismakworo/Shesecure2/config"
	"github.com/Perismakworo/Shesecure2/internal/api/http/routes"
	"github.com/Perismakworo/Shesecure2/internal/auth"
	"github.com/Perismakworo/Shesecure2/internal/bootstrap"
	circlerepo "github.com/Perismakworo/Shesecure2/internal/circles/repository"
	circlesvc "github.com/Perismakworo/Shesecure2/internal/circles/service"
	locrepo "github.com/Perismakworo/Shesecure2/internal/locations/repository"
	"github.com/Perismakworo/Shesecure2/internal/locations/retention"
	locsvc "github.com/Perismakworo/Shesecure2/internal/locations/service"
	"github.com/Perismakworo/Shesecure2/internal/logging"
	"github.com/Perismakworo/Shesecure2/internal/metrics"
	"github.com/Perismakworo/Shesecure2/internal/notify/email"
	"github.com/Perismakworo/Shesecure2/internal/notify/push"
	"github.com/Perismakworo/Shesecure2/internal/pushtokens"
	sosrepo "github.com/Perismakworo/Shesecure2/internal/sos/repository"
	sossvc "github.com/Perismakworo/Shesecure2/internal/sos/service"
	"github.com/Perismakworo/Shesecure2/internal/storage/postgres"
	"github.com/Perismakworo/Shesecure2/internal/users"
)

const serviceName = "shesecure-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap.SetGinMode(cfg.App.Environment)

	db, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}
	logger.Info("database connected", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{Config: &cfg.Redis})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()
	logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))

	var fbApp *firebase.App
	if cfg.Auth.Provider == config.AuthProviderFirebase || cfg.Push.Enabled {
		fbApp, err = auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			return err
		}
	}

	verifier, err := buildVerifier(ctx, cfg, fbApp)
	if err != nil {
		return err
	}

	var pushSender push.Sender
	if cfg.Push.Enabled {
		fcm, err := push.NewFCMSender(ctx, fbApp, cfg.Push.BatchSize)
		if err != nil {
			return err
		}
		pushSender = fcm
	} else {
		logger.Warn("push delivery disabled")
	}

	mailSender, err := buildEmailSender(ctx, cfg)
	if err != nil {
		return err
	}
	if mailSender == nil {
		logger.Warn("email delivery disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	txm := postgres.NewTxManager(db)
	userRepo := users.NewRepo(db)
	tokenRepo := pushtokens.NewRepo(db)
	locationRepo := locrepo.NewLocationRepository(db)

	circles := circlesvc.NewCircleService(txm,
		circlerepo.NewCircleRepository(db),
		circlerepo.NewInviteRepository(db),
		cfg.Invite.TTL,
		logger)
	locations := locsvc.NewLocationService(txm, locationRepo, circles, logger)

	engine := sossvc.NewEngine(sossvc.Deps{
		Audience:  circles,
		Locations: locations,
		Names:     userRepo,
		Tokens:    tokenRepo,
		Log:       sosrepo.NewDispatchRepository(rdb, cfg.Redis.DispatchTTL),
		Push:      pushSender,
		Email:     mailSender,
		Metrics:   m,
		Logger:    logger,
	}, sossvc.Options{
		Concurrency:  cfg.Email.Concurrency,
		PushTimeout:  cfg.Push.Timeout,
		EmailTimeout: cfg.Email.Timeout,
	})

	sweeper := retention.NewScheduler(locationRepo, cfg.Locations.HistoryRetention, cfg.Locations.RetentionCron, m, logger)
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
		Metrics:        m,
		Gatherer:       reg,
		DBPing:         db.PingContext,
		RedisPing:      func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		V1: routes.V1Deps{
			Logger:     logger,
			Verifier:   verifier,
			Users:      userRepo,
			Circles:    circles,
			Locations:  locations,
			PushTokens: tokenRepo,
			SOS:        engine,
		},
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.App.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	// In-flight SOS deliveries finish before the stores close.
	engine.Close()
	logger.Info("server exited")
	return nil
}

func buildVerifier(ctx context.Context, cfg *config.Config, app *firebase.App) (auth.TokenVerifier, error) {
	switch cfg.Auth.Provider {
	case config.AuthProviderFirebase:
		return auth.NewFirebaseVerifier(ctx, app)
	default:
		return auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	}
}

// buildEmailSender returns nil when email delivery is disabled.
func buildEmailSender(ctx context.Context, cfg *config.Config) (email.Sender, error) {
	var sender email.Sender
	switch cfg.Email.Provider {
	case config.EmailProviderSMTP:
		s, err := email.NewSMTPSender(email.SMTPOptions{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.From,
			Timeout:  cfg.Email.Timeout,
		})
		if err != nil {
			return nil, err
		}
		sender = s
	case config.EmailProviderSES:
		s, err := email.NewSESSender(ctx, cfg.Email.AWSRegion, cfg.Email.From)
		if err != nil {
			return nil, err
		}
		sender = s
	default:
		return nil, nil
	}
	return email.NewThrottled(sender, cfg.Email.RatePerSecond, cfg.Email.Concurrency), nil
}

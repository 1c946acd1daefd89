package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"

	"github.com/focusnest/study-tracker/internal/config"
	"github.com/focusnest/study-tracker/internal/export"
	"github.com/focusnest/study-tracker/internal/httpapi"
	sharedauth "github.com/focusnest/study-tracker/internal/platform/auth"
	"github.com/focusnest/study-tracker/internal/platform/logging"
	"github.com/focusnest/study-tracker/internal/platform/metrics"
	sharedserver "github.com/focusnest/study-tracker/internal/platform/server"
	"github.com/focusnest/study-tracker/internal/progress"
	"github.com/focusnest/study-tracker/internal/reward"
	"github.com/focusnest/study-tracker/internal/session"
)

const serviceName = "study-tracker"

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger(serviceName)
	m := metrics.New()

	repo, cleanup, err := newRepository(ctx, cfg, logger)
	if err != nil {
		panic(fmt.Errorf("repository init error: %w", err))
	}
	defer cleanup()

	calendar, err := progress.NewCalendar(cfg.Weeks.Start, cfg.Weeks.Count)
	if err != nil {
		panic(fmt.Errorf("calendar error: %w", err))
	}

	curriculum := progress.DefaultCurriculum()
	if cfg.Curriculum != "" {
		if curriculum, err = progress.LoadCurriculumFile(cfg.Curriculum); err != nil {
			panic(fmt.Errorf("curriculum error: %w", err))
		}
	}

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	sess := session.Bootstrap(ctx, verifier, cfg.SessionToken, logger)

	progressService, err := progress.NewService(progress.Deps{
		Repository: repo,
		Calendar:   calendar,
		Curriculum: curriculum,
		Session:    sess,
		Logger:     logger,
		Metrics:    m,
	})
	if err != nil {
		panic(fmt.Errorf("progress service init error: %w", err))
	}
	stop := progressService.Start(ctx)

	exporter, closeExporter := newExporter(ctx, cfg, logger)

	router := sharedserver.NewRouter(serviceName, func(r chi.Router) {
		r.Handle("/metrics", m.Handler())

		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(verifier))

			httpapi.RegisterRoutes(r, httpapi.Deps{
				Service:  progressService,
				Spinners: reward.NewRegistry(reward.WithDelay(cfg.Rewards.SpinDelay)),
				Exporter: exporter,
				Metrics:  m,
				Logger:   logger,
				RateLimit: httpapi.RateLimit{
					PerSecond: cfg.RateLimit.PerSecond,
					Burst:     cfg.RateLimit.Burst,
				},
			})
		})
	}, m.Middleware)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := sharedserver.Run(ctx, srv, logger, stop, closeExporter); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (progress.Repository, func(), error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		if cfg.Firestore.EmulatorHost != "" {
			if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.Firestore.EmulatorHost); err != nil {
				return nil, nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
			}
		}

		client, err := firestore.NewClientWithDatabase(ctx, cfg.App.ProjectID, cfg.App.DatabaseID)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore client: %w", err)
		}

		repo := progress.NewFirestoreRepository(client, cfg.App.AppID, logger)
		cleanup := func() {
			_ = client.Close()
		}
		return repo, cleanup, nil
	default:
		return progress.NewMemoryRepository(), func() {}, nil
	}
}

// newExporter returns a nil exporter when export is not configured or the client cannot be built;
// the export route then answers 503 while the rest of the service runs.
func newExporter(ctx context.Context, cfg config.Config, logger *slog.Logger) (export.Exporter, func()) {
	if cfg.Export.Bucket == "" {
		return nil, func() {}
	}
	svc, err := export.NewService(ctx, cfg.Export.Bucket)
	if err != nil {
		logger.Error("report export disabled", "bucket", cfg.Export.Bucket, "error", err)
		return nil, func() {}
	}
	return svc, func() { _ = svc.Close() }
}

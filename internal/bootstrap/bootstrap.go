package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/decision-noise/internal/config"
	"github.com/kirillkom/decision-noise/internal/core/ports"
	"github.com/kirillkom/decision-noise/internal/core/usecase"
	"github.com/kirillkom/decision-noise/internal/infrastructure/function/httpfn"
	"github.com/kirillkom/decision-noise/internal/infrastructure/queue/nats"
	"github.com/kirillkom/decision-noise/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/decision-noise/internal/infrastructure/resilience"
	"github.com/kirillkom/decision-noise/internal/infrastructure/seed"
	"github.com/kirillkom/decision-noise/internal/infrastructure/storage/httpbucket"
	"github.com/kirillkom/decision-noise/internal/infrastructure/storage/localfs"
)

// App holds the structured store and read side shared by every process.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Industries *postgres.IndustryRepository
	Techniques *postgres.TechniqueRepository
	Dashboard  *usecase.DashboardUseCase
	Executor   *resilience.Executor

	db      *sql.DB
	closers []func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	industries := postgres.NewIndustryRepository(db)
	techniques := postgres.NewTechniqueRepository(db)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Industries: industries,
		Techniques: techniques,
		Dashboard:  usecase.NewDashboardUseCase(industries, techniques),
		Executor:   resilience.NewExecutor(ResilienceConfig(cfg)),
		db:         db,
	}, nil
}

func ResilienceConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		BreakerEnabled:          cfg.BreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.BreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.BreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(cfg.BreakerOpenTimeoutSecs) * time.Second,
		BreakerHalfOpenMaxCalls: uint32(max(cfg.BreakerHalfOpenMaxCalls, 0)),
	}
}

// Seed loads SEED_PATH into the store; it is a no-op when the path is unset.
func (a *App) Seed(ctx context.Context) error {
	if a.Config.SeedPath == "" {
		return nil
	}
	file, err := seed.LoadFile(a.Config.SeedPath)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	return seed.Apply(ctx, file, a.Industries, a.Techniques, a.Logger)
}

// BlobStore builds the bucket adapter over the configured storage backend.
func (a *App) BlobStore() (*usecase.BlobStore, error) {
	var storage ports.ObjectStorage
	switch a.Config.StorageBackend {
	case config.StorageBackendRemote:
		storage = httpbucket.New(a.Config.StorageURL, a.Config.StorageBucket, a.Config.StorageAPIKey, httpbucket.Options{
			ResilienceExecutor: a.Executor,
		})
	case config.StorageBackendLocalFS:
		fs, err := localfs.New(a.Config.StoragePath, a.Config.StoragePublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		storage = fs
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", a.Config.StorageBackend)
	}
	return usecase.NewBlobStore(storage, a.Logger), nil
}

// Processor builds the client for the remote transformation function.
func (a *App) Processor() (ports.NoiseDataProcessor, error) {
	timeout := time.Duration(a.Config.ProcessTimeoutSeconds) * time.Second
	switch a.Config.ProcessorTransport {
	case config.ProcessorTransportHTTP:
		return httpfn.New(a.Config.FunctionsURL, a.Config.ProcessFunctionName, a.Config.FunctionsAPIKey, httpfn.Options{
			Timeout:            timeout,
			ResilienceExecutor: a.Executor,
		}), nil
	case config.ProcessorTransportNATS:
		queue, err := a.Queue(timeout)
		if err != nil {
			return nil, err
		}
		return queue, nil
	default:
		return nil, fmt.Errorf("unsupported processor transport %q", a.Config.ProcessorTransport)
	}
}

// Queue connects to NATS on the process subject. The connection is closed with the App.
func (a *App) Queue(requestTimeout time.Duration) (*nats.Queue, error) {
	queue, err := nats.NewWithOptions(a.Config.NATSURL, a.Config.NATSProcessSubject, nats.Options{
		RequestTimeout:     requestTimeout,
		ResilienceExecutor: a.Executor,
		Logger:             a.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	a.closers = append(a.closers, queue.Close)
	return queue, nil
}

// Ingestor wires the full upload pipeline.
func (a *App) Ingestor(blobs ports.NoiseDataStorage, audit ports.AuditSink) (*usecase.IngestNoiseDataUseCase, error) {
	processor, err := a.Processor()
	if err != nil {
		return nil, err
	}
	return usecase.NewIngestNoiseDataUseCase(usecase.NewFileValidator(a.Logger), blobs, processor, audit, a.Logger), nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

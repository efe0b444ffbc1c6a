// Package container provides dependency injection and lifecycle management
// for the quote validator.
package container

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/application/port"
	"github.com/garyjia/quote-validator/internal/application/service"
	"github.com/garyjia/quote-validator/internal/config"
	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/infrastructure/external/gemini"
	"github.com/garyjia/quote-validator/internal/infrastructure/external/openai"
	"github.com/garyjia/quote-validator/internal/infrastructure/persistence/repository"
	"github.com/garyjia/quote-validator/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/quote-validator/internal/infrastructure/storage"
	"github.com/garyjia/quote-validator/internal/infrastructure/worker"
	"github.com/garyjia/quote-validator/internal/quote"
	"github.com/garyjia/quote-validator/internal/review"
	"github.com/garyjia/quote-validator/internal/rules"
	"github.com/garyjia/quote-validator/migrations"
	"github.com/garyjia/quote-validator/pkg/database"
	"github.com/garyjia/quote-validator/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database, applies pending migrations and wraps the
// connection in a transaction manager. Migrations come from the embedded set
// unless cfg.MigrationsDir names a directory.
func ProvideDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(conn, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrations(cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrationsFS(migrations.FS)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Conn:           conn,
		SqlDB:          conn.DB,
		TransactionMgr: sqlite.NewDB(conn.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Template:   repository.NewTemplateRepository(sqlDB, logger),
		Submission: repository.NewSubmissionRepository(sqlDB, logger),
		Finding:    repository.NewFindingRepository(sqlDB, logger),
	}, nil
}

// ProvideStorage creates the blob store with the template and quote buckets.
func ProvideStorage(cfg *config.StorageConfig, logger *zap.Logger) (port.BlobStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return storage.NewLocalBlobStore(cfg.BaseDir, logger, entity.BucketTemplates, entity.BucketQuotes)
}

// ProvideAIReviewer creates the text-generation backend named by cfg.Provider.
// It returns nil for the "none" provider.
func ProvideAIReviewer(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) (port.AIReviewer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ai config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewReviewer(cfg.OpenAIAPIKey, cfg.Model, logger), nil
	case config.ProviderGemini:
		r, err := gemini.NewReviewer(ctx, cfg.GeminiAPIKey, cfg.Model, logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

// ProvideReviewer builds the AI review pass around backend, which may be nil.
// Temperature and max tokens from cfg take precedence over the prompts file.
func ProvideReviewer(backend port.AIReviewer, cfg *config.AIConfig, logger *zap.Logger) (*review.Reviewer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ai config is required")
	}

	prompts := review.DefaultPrompts()
	if cfg.PromptsPath != "" {
		loaded, err := review.LoadPrompts(cfg.PromptsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load prompts: %w", err)
		}
		prompts = loaded
	}
	if cfg.Temperature > 0 {
		prompts.Review.Temperature = cfg.Temperature
	}
	if cfg.MaxTokens > 0 {
		prompts.Review.MaxTokens = cfg.MaxTokens
	}

	return review.NewReviewer(backend, prompts, cfg.Timeout, logger), nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Blobs      port.BlobStore
	Reviewer   service.FindingReviewer
	Validation *config.ValidationConfig
	Logger     *zap.Logger
}

// ProvideServices creates the application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if deps.Validation == nil {
		return nil, fmt.Errorf("validation config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	svcLogger := utils.NewServiceLogger(deps.Logger)
	vc := deps.Validation

	extractor := quote.NewExtractor(quote.Options{
		DefaultTaxRate:  vc.DefaultTaxRate,
		DefaultCurrency: vc.DefaultCurrency,
	})
	engine := rules.NewEngine(rules.Config{
		MathTolerance:      vc.MathTolerance,
		MaxDiscountPercent: vc.MaxDiscountPercent,
	}, deps.Logger)

	validation := service.NewValidationService(extractor, engine, deps.Reviewer, svcLogger)

	return &ServiceBundle{
		Validation: validation,
		Templates: service.NewTemplateService(
			deps.Repos.Template,
			deps.Blobs,
			validation,
			vc.MaxUploadMB,
			svcLogger,
		),
		Submission: service.NewSubmissionService(
			deps.Repos.Submission,
			deps.Repos.Template,
			deps.Repos.Finding,
			deps.Blobs,
			deps.TxManager,
			validation,
			service.SubmissionConfig{
				PersistRetries: vc.PersistRetries,
				MaxUploadMB:    vc.MaxUploadMB,
			},
			svcLogger,
		),
	}, nil
}

// ProvideWorkers creates the worker manager. The validation worker is only
// registered when cfg.Enabled is set.
func ProvideWorkers(cfg *config.WorkerConfig, repos *RepositoryBundle, validator worker.SubmissionValidator, logger *zap.Logger) (*worker.WorkerManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("worker config is required")
	}
	if repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewWorkerManager(logger)
	if !cfg.Enabled {
		return manager, nil
	}

	manager.Register(worker.NewValidationWorker(
		worker.ValidationWorkerConfig{
			PollInterval:   cfg.PollInterval,
			BatchSize:      cfg.BatchSize,
			Concurrency:    cfg.Concurrency,
			ProcessTimeout: cfg.ProcessTimeout,
		},
		repos.Submission,
		validator,
		logger,
	))
	return manager, nil
}

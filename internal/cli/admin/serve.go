package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/corpora/internal/api/handlers"
	"github.com/cloo-solutions/corpora/internal/config"
	"github.com/cloo-solutions/corpora/internal/database"
	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/jobs"
	"github.com/cloo-solutions/corpora/internal/openai"
	"github.com/cloo-solutions/corpora/internal/repository"
	"github.com/cloo-solutions/corpora/internal/server"
	"github.com/cloo-solutions/corpora/internal/service"
	"github.com/cloo-solutions/corpora/internal/storage"
	"github.com/cloo-solutions/corpora/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the corpora API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	userRepo := repository.NewUserRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	ingestJobRepo := repository.NewIngestJobRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	if cfg.InitUserName != "" {
		if err := bootstrapInitialUser(ctx, cfg, userRepo, apiKeyRepo); err != nil {
			return fmt.Errorf("failed to bootstrap initial user: %w", err)
		}
	}

	var storageClient service.StorageClientInterface
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		storageClient = s3Client
	}

	var llmClient *openai.Client
	if cfg.HasOpenAI() {
		llmClient = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		llmClient = openai.NewDisabledClient()
		log.Println("no OPENAI_API_KEY configured, running with language model disabled")
	}

	var ingestWorker *jobs.Worker
	if storageClient != nil && llmClient.Enabled() {
		ingestionSvc := service.NewIngestionService(docRepo, storageClient, service.NewPlainTextExtractor(), llmClient, txRunner, service.ChunkConfig{
			Size:    cfg.ChunkSize,
			Overlap: cfg.ChunkOverlap,
		})
		ingestProcessor := jobs.NewIngestWorker(ingestJobRepo, ingestionSvc, docRepo)
		ingestWorker = jobs.NewWorker(ingestProcessor, time.Duration(cfg.WorkerPollSeconds)*time.Second)
		go ingestWorker.Start(ctx)
		log.Println("ingest worker started")
	}

	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(userRepo, apiKeyRepo, uuidGen)

	retrieverSvc := service.NewRetrieverService(llmClient, chunkRepo)
	correctorSvc := service.NewCorrectorService(llmClient)
	classifierSvc := service.NewClassifierService(llmClient)
	routerSvc := service.NewRouterService(classifierSvc, correctorSvc, retrieverSvc, docRepo, llmClient)

	var documentHandler *handlers.DocumentHandler
	if storageClient != nil {
		documentSvc := service.NewDocumentService(docRepo, storageClient, txRunner)
		documentHandler = handlers.NewDocumentHandler(documentSvc)
	} else {
		documentHandler = handlers.NewDocumentHandler(&NoOpDocumentService{})
	}

	routerCfg := server.RouterConfig{
		AuthValidator:   authSvc,
		AskHandler:      handlers.NewAskHandler(routerSvc),
		DocumentHandler: documentHandler,
		AuthHandler:     handlers.NewAuthHandler(authSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if ingestWorker != nil {
		ingestWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type NoOpDocumentService struct{}

func (s *NoOpDocumentService) InitUpload(ctx context.Context, input service.InitDocumentUploadInput) (*service.InitDocumentUploadResult, error) {
	return nil, fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) CompleteUpload(ctx context.Context, input service.CompleteDocumentUploadInput) (*domain.Document, error) {
	return nil, fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) GetByID(ctx context.Context, ownerID, documentID string) (*domain.Document, error) {
	return nil, fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) GetDownloadURL(ctx context.Context, ownerID, documentID string) (string, error) {
	return "", fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) List(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error) {
	return nil, fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) Delete(ctx context.Context, ownerID, documentID string) error {
	return fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func bootstrapInitialUser(ctx context.Context, cfg *config.Config, userRepo *repository.UserRepository, apiKeyRepo *repository.APIKeyRepository) error {
	user, err := userRepo.GetByName(ctx, cfg.InitUserName)
	if err != nil && err != domain.ErrUserNotFound {
		return fmt.Errorf("failed to check existing user: %w", err)
	}

	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(userRepo, apiKeyRepo, uuidGen)

	if user == nil {
		user, err = authSvc.CreateUser(ctx, cfg.InitUserName)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		log.Printf("bootstrap: created user '%s' (id: %s)", user.Name, user.ID)
	} else {
		log.Printf("bootstrap: user '%s' already exists (id: %s)", user.Name, user.ID)
	}

	if cfg.InitAPIKey != "" {
		if !service.IsValidAPIToken(cfg.InitAPIKey) {
			return fmt.Errorf("invalid CORPORA_INIT_API_KEY format (expected 'cor_<64 hex chars>')")
		}

		existingKey, err := authSvc.GetAPIKeyByHash(ctx, cfg.InitAPIKey)
		if err == nil && existingKey != nil {
			log.Printf("bootstrap: API key already exists (id: %s)", existingKey.ID)
			return nil
		}

		if err := authSvc.CreateAPIKeyWithToken(ctx, user.ID, "bootstrap", cfg.InitAPIKey); err != nil {
			return fmt.Errorf("failed to create API key: %w", err)
		}
		log.Printf("bootstrap: created API key")
	}

	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}

package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nodestore/internal/auth"
	"nodestore/internal/config"
	"nodestore/internal/domain/services"
	"nodestore/internal/handler"
	"nodestore/internal/middleware"
	"nodestore/internal/repository/postgres"
	postgresDocsys "nodestore/internal/repository/postgres/docsystem"
	serviceDocsys "nodestore/internal/service/docsystem"
	"nodestore/internal/storage/s3store"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run() error {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var logOut io.Writer
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			return err
		}
		defer logFile.Close()
		logOut = logFile
	}
	logger := config.NewLogger(cfg, logOut)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	if err != nil {
		return err
	}
	defer jwtVerifier.Close()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("database connected", "max_conns", pool.Config().MaxConns)

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(ctx, pool, tables, logger); err != nil {
			return err
		}
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	nodeRepo := postgresDocsys.NewNodeRepository(repoConfig)
	projectRepo := postgresDocsys.NewProjectRepository(repoConfig)
	contentRepo := postgresDocsys.NewFileContentRepository(repoConfig)
	memberRepo := postgresDocsys.NewMembershipRepository(repoConfig)

	storeConfig := s3store.Config{
		Endpoint:               cfg.S3Endpoint,
		Region:                 cfg.S3Region,
		Bucket:                 cfg.S3Bucket,
		UsePathStyle:           cfg.S3UsePathStyle,
		AccessKeyID:            cfg.S3AccessKeyID,
		SecretAccessKey:        cfg.S3SecretAccessKey,
		ServiceAccessKeyID:     cfg.S3ServiceAccessKeyID,
		ServiceSecretAccessKey: cfg.S3ServiceSecretAccessKey,
	}
	readStore, err := s3store.New(ctx, storeConfig, services.CapabilityStandard, logger)
	if err != nil {
		return err
	}
	// the upload saga deletes objects when it compensates
	uploadStore, err := s3store.New(ctx, storeConfig, services.CapabilityElevated, logger)
	if err != nil {
		return err
	}

	ticketSecret := []byte(cfg.UploadTicketSecret)
	if len(ticketSecret) == 0 {
		if ticketSecret, err = auth.RandomTicketSecret(); err != nil {
			return err
		}
		logger.Warn("UPLOAD_TICKET_SECRET not set, upload tokens will not survive a restart")
	}
	tickets, err := auth.NewTicketSigner(ticketSecret)
	if err != nil {
		return err
	}

	validator := serviceDocsys.NewResourceValidator(memberRepo, nodeRepo)
	uploadCoordinator := serviceDocsys.NewUploadCoordinator(nodeRepo, contentRepo, uploadStore, tickets, validator, cfg.UploadURLTTL, logger)
	publicService := serviceDocsys.NewPublicService(
		nodeRepo,
		contentRepo,
		projectRepo,
		serviceDocsys.NewAccessGate(memberRepo, logger),
		serviceDocsys.NewContentResolver(readStore, cfg.SignedURLTTL, logger),
		serviceDocsys.NewTreeWalker(nodeRepo, logger),
		logger,
	)

	publicHandler := handler.NewPublicHandler(publicService, logger)
	uploadHandler := handler.NewUploadHandler(uploadCoordinator, logger)
	healthHandler := handler.NewHealthHandler(pool, logger)

	limiter := middleware.NewLimiter(cfg.PublicRateLimit, time.Minute, max(cfg.PublicRateLimit/10, 1))
	defer limiter.Close()
	limited := middleware.RateLimit(limiter)

	logger.Info("services initialized")

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Check)

	// Public read routes (optional auth)
	mux.HandleFunc("GET /api/public/node", limited(publicHandler.GetNode))
	mux.HandleFunc("GET /api/public/workspace", limited(publicHandler.GetWorkspace))

	// Upload routes
	mux.HandleFunc("POST /api/files/upload-url", middleware.RequireAuth(uploadHandler.CreateUploadURL))
	mux.HandleFunc("POST /api/files/confirm-upload", middleware.RequireAuth(uploadHandler.ConfirmUpload))

	// Order: CORS → Recovery → Auth → Routes
	var h http.Handler = mux
	h = middleware.OptionalAuth(jwtVerifier, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

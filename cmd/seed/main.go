package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"nodestore/internal/auth"
	"nodestore/internal/config"
	"nodestore/internal/domain/services"
	"nodestore/internal/repository/postgres"
	postgresDocsys "nodestore/internal/repository/postgres/docsystem"
	"nodestore/internal/seed"
	"nodestore/internal/storage/s3store"

	"github.com/joho/godotenv"
)

func main() {
	fixturePath := flag.String("fixture", "internal/seed/testdata/example.yaml", "YAML fixture to load")
	owner := flag.String("owner", "", "owner user id (overrides owner_id in the fixture)")
	email := flag.String("email", "", "create or reuse this Supabase user and make it the owner")
	password := flag.String("password", "", "password for -email when the user is created")
	reset := flag.Bool("reset", false, "delete the fixture's project before loading")
	skipObjects := flag.Bool("skip-objects", false, "do not connect to the object store")
	flag.Parse()

	if err := run(*fixturePath, *owner, *email, *password, *reset, *skipObjects); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

func run(fixturePath, owner, email, password string, reset, skipObjects bool) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Environment == "prod" && reset {
		return errors.New("refusing to -reset in prod")
	}

	logger := config.NewLogger(cfg, nil)
	ctx := context.Background()

	file, err := os.Open(fixturePath)
	if err != nil {
		return err
	}
	defer file.Close()

	fixture, err := seed.ParseFixture(file)
	if err != nil {
		return err
	}

	if email != "" {
		if cfg.SupabaseKey == "" {
			return errors.New("SUPABASE_KEY is required to create the seed user")
		}
		admin := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey)
		if owner, err = admin.EnsureUser(ctx, email, password); err != nil {
			return err
		}
		logger.Info("seed user ready", "email", email, "user_id", owner)
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.RunMigrations(ctx, pool, tables, logger); err != nil {
		return err
	}

	var objects seed.ObjectWriter
	if !skipObjects {
		// seeding writes objects directly, which needs the service role
		store, err := s3store.New(ctx, s3store.Config{
			Endpoint:               cfg.S3Endpoint,
			Region:                 cfg.S3Region,
			Bucket:                 cfg.S3Bucket,
			UsePathStyle:           cfg.S3UsePathStyle,
			AccessKeyID:            cfg.S3AccessKeyID,
			SecretAccessKey:        cfg.S3SecretAccessKey,
			ServiceAccessKeyID:     cfg.S3ServiceAccessKeyID,
			ServiceSecretAccessKey: cfg.S3ServiceSecretAccessKey,
		}, services.CapabilityElevated, logger)
		if err != nil {
			return err
		}
		objects = store
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	seeder := seed.NewSeeder(
		postgres.NewTransactionManager(pool, logger),
		postgresDocsys.NewProjectRepository(repoConfig),
		postgresDocsys.NewMembershipRepository(repoConfig),
		postgresDocsys.NewNodeRepository(repoConfig),
		postgresDocsys.NewFileContentRepository(repoConfig),
		objects,
		logger,
	)

	result, err := seeder.Load(ctx, fixture, seed.Options{OwnerID: owner, Reset: reset})
	if err != nil {
		return err
	}

	logger.Info("seeding complete",
		"table_prefix", cfg.TablePrefix,
		"project_id", result.ProjectID,
		"nodes", result.Nodes,
	)
	return nil
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/bryanwahyu/imagesense/internal/application"
	appanalysis "github.com/bryanwahyu/imagesense/internal/application/analysis"
	"github.com/bryanwahyu/imagesense/internal/config"
	"github.com/bryanwahyu/imagesense/internal/domain/analysis"
	"github.com/bryanwahyu/imagesense/internal/infra/ai/openai"
	"github.com/bryanwahyu/imagesense/internal/infra/csvstore"
	mysqlp "github.com/bryanwahyu/imagesense/internal/infra/db/mysql"
	"github.com/bryanwahyu/imagesense/internal/infra/db/postgres"
	minioStore "github.com/bryanwahyu/imagesense/internal/infra/storage"
	"github.com/bryanwahyu/imagesense/internal/middleware"
)

// app is everything a command needs once the credential has been accepted.
type app struct {
	session  *appanalysis.Session
	store    *csvstore.Store
	checkers map[string]middleware.HealthChecker
	closers  []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		c.Close()
	}
}

// newApp checks the credential first; nothing else (store, database,
// object storage) is touched when it is missing or rejected.
func newApp(ctx context.Context, cfg *config.Config, sink analysis.LogSink) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := openai.NewClientWithBaseURL(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	client.MaxTokens = cfg.OpenAI.MaxTokens
	if cfg.OpenAI.VerifyKey {
		if err := client.Verify(ctx); err != nil {
			return nil, err
		}
	}
	sink.Log("API key validated successfully")

	store := csvstore.New(cfg.Output.CSVPath)
	a := &app{
		store: store,
		checkers: map[string]middleware.HealthChecker{
			"results": middleware.CheckFunc(func(context.Context) error { return store.Writable() }),
		},
	}
	a.session = &appanalysis.Session{
		Client: client,
		Store:  store,
		Sink:   sink,
		Clock:  application.SystemClock{},
		Pricing: appanalysis.Pricing{
			InputPerToken:  cfg.OpenAI.InputPrice,
			OutputPerToken: cfg.OpenAI.OutputPrice,
		},
	}

	if err := a.wireDatabase(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	if cfg.Minio.Enabled {
		ms, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.session.Artifacts = ms
		a.checkers["minio"] = ms
	}
	return a, nil
}

type recordRepository interface {
	analysis.Repository
	EnsureSchema(ctx context.Context) error
	Check(ctx context.Context) error
}

func (a *app) wireDatabase(ctx context.Context, cfg *config.Config) error {
	var (
		db   *sql.DB
		repo recordRepository
		err  error
	)
	switch cfg.Database.Driver {
	case "":
		return nil
	case "mysql":
		if db, err = mysqlp.Connect(ctx, cfg.MySQLDSN()); err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		repo = mysqlp.NewRecordRepository(db)
	case "postgres":
		if db, err = postgres.Connect(ctx, cfg.PostgresDSN()); err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		repo = postgres.NewRecordRepository(db)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	a.closers = append(a.closers, db)

	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	a.session.Mirrors = append(a.session.Mirrors, repo)
	a.checkers["database"] = repo
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/pkg/provider/vectorstore/pgvector"
	"github.com/recallhq/recall/pkg/repository/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context())
	},
}

// runMigrate opens (and immediately closes) both Postgres-backed stores.
// Both constructors run their embedded DDL idempotently on connect, so
// opening them is the entire migration.
func runMigrate(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg.Server.LogLevel))

	repo, err := postgres.New(ctx, cfg.Database.PostgresDSN)
	if err != nil {
		return fmt.Errorf("migrate repository schema: %w", err)
	}
	repo.Close()
	slog.Info("repository schema up to date")

	if cfg.Providers.VectorStore.Name == "pgvector" {
		dims := cfg.Database.EmbeddingDimensions
		if dims <= 0 {
			dims = 1536
		}
		store, err := pgvector.New(ctx, cfg.Database.PostgresDSN, dims)
		if err != nil {
			return fmt.Errorf("migrate vector store schema: %w", err)
		}
		store.Close()
		slog.Info("vector store schema up to date", "embedding_dimensions", dims)
	}

	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgDocumentStore keeps documents as jsonb rows in app_documents, keyed by
// (collection, id). See db/ for the schema.
type pgDocumentStore struct {
	db *pgxpool.Pool
}

func (s *pgDocumentStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	var body string
	err := s.db.QueryRow(ctx,
		`SELECT body::text FROM app_documents
		 WHERE collection = @collection AND id = @id`,
		pgx.NamedArgs{"collection": collection, "id": id}).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select document %s/%s: %w", collection, id, err)
	}
	return []byte(body), nil
}

func (s *pgDocumentStore) Set(ctx context.Context, collection, id string, body []byte) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO app_documents (collection, id, body)
		 VALUES (@collection, @id, @body::jsonb)
		 ON CONFLICT (collection, id) DO UPDATE
		 SET body = EXCLUDED.body, updated_at = now()`,
		pgx.NamedArgs{"collection": collection, "id": id, "body": string(body)})
	if err != nil {
		return fmt.Errorf("upsert document %s/%s: %w", collection, id, err)
	}
	return nil
}

// connectPrimary creates a connection pool and pings it. We use a pool (not a
// single conn) because hosted Postgres closes idle connections after a few minutes.
func connectPrimary(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	// Simple protocol avoids "cached plan must not change result type" errors
	// after schema changes on poolers with server-side statement caches.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// attachPrimaryAsync connects to Postgres in the background and attaches the
// store to a once the pool answers. An empty dbURL leaves a on the local store.
func attachPrimaryAsync(ctx context.Context, a *StoreAdapter, dbURL string, logger *zap.Logger) {
	if dbURL == "" {
		logger.Info("DB_URL not set, running on the local store only")
		return
	}
	go func() {
		pool, err := connectPrimary(ctx, dbURL)
		if err != nil {
			logger.Warn("primary document store unavailable", zap.Error(err))
			return
		}
		a.AttachPrimary(&pgDocumentStore{db: pool})
	}()
}

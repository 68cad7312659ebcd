// CLI tool that applies pending SQL migrations from db/ to the primary
// document store. Applied files are recorded in the migrations table; each
// file and its record commit in one transaction.
// Usage: go run ./cmd/migrate [-dir db] (from the repository root)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{3}-`)

func main() {
	dir := flag.String("dir", "db", "directory holding *.sql migrations")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Fatal("load .env", zap.Error(err))
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, os.Getenv("DB_URL"))
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer conn.Close(ctx)

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil || len(files) == 0 {
		logger.Fatal("no migration files found", zap.String("dir", *dir))
	}

	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		logger.Fatal("read applied migrations", zap.Error(err))
	}

	pending := pendingMigrations(files, applied)
	for _, f := range pending {
		if err := applyMigration(ctx, conn, f); err != nil {
			logger.Fatal("migration failed", zap.String("file", filepath.Base(f)), zap.Error(err))
		}
		logger.Info("applied", zap.String("file", filepath.Base(f)))
	}
	logger.Info("migrations complete",
		zap.Int("applied", len(pending)),
		zap.Int("skipped", len(files)-len(pending)))
}

// appliedMigrations returns the recorded file names. A missing migrations
// table means nothing has run yet.
func appliedMigrations(ctx context.Context, conn *pgx.Conn) (map[string]bool, error) {
	applied := make(map[string]bool)
	var exists bool
	if err := conn.QueryRow(ctx, "SELECT to_regclass('migrations') IS NOT NULL").Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return applied, nil
	}
	rows, err := conn.Query(ctx, "SELECT migration FROM migrations")
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		applied[n] = true
	}
	return applied, nil
}

// pendingMigrations returns files not yet applied, in file name order.
func pendingMigrations(files []string, applied map[string]bool) []string {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	pending := sorted[:0]
	for _, f := range sorted {
		if !applied[filepath.Base(f)] {
			pending = append(pending, f)
		}
	}
	return pending
}

func applyMigration(ctx context.Context, conn *pgx.Conn, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	filename := filepath.Base(path)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO migrations (migration, description) VALUES ($1, $2)",
		filename, descriptionFromFilename(filename)); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return tx.Commit(ctx)
}

// descriptionFromFilename strips the YYYY-MM-DD-NNN- prefix and .sql suffix.
func descriptionFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, ".sql")
	name = datePrefix.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, "-", " ")
}

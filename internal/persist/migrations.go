package persist

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// journalVersionTable tracks applied journal migrations. It is separate
// from goose's default table so the journal can share a database with
// other goose-managed schemas.
const journalVersionTable = "f2edit_journal_version"

// RunMigrations brings the edit_journal schema up to date.
func RunMigrations(ctx context.Context, db *DB) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	p, err := newMigrationProvider(sqlDB)
	if err != nil {
		return err
	}

	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	for _, r := range results {
		db.log.Info("journal migration applied",
			zap.Int64("version", r.Source.Version),
			zap.String("file", r.Source.Path),
			zap.Duration("took", r.Duration))
	}
	return nil
}

func newMigrationProvider(sqlDB *sql.DB) (*goose.Provider, error) {
	store, err := database.NewStore(database.DialectPostgres, journalVersionTable)
	if err != nil {
		return nil, fmt.Errorf("journal version store: %w", err)
	}
	dir, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	p, err := goose.NewProvider("", sqlDB, dir, goose.WithStore(store))
	if err != nil {
		return nil, fmt.Errorf("journal migrations: %w", err)
	}
	return p, nil
}

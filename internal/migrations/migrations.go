package migrations

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type migration struct {
	version string
	up      func(*sqlx.Tx) error
	down    func(*sqlx.Tx) error
}

var registry = map[string]*migration{}

func addMigration(mg *migration) {
	if _, exists := registry[mg.version]; exists {
		panic(fmt.Sprintf("duplicate migration version %s", mg.version))
	}
	registry[mg.version] = mg
}

func versions() []string {
	out := make([]string, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Status describes one registered migration.
type Status struct {
	Version string
	Applied bool
}

// Migrator applies the registered schema migrations to Postgres.
type Migrator struct {
	db     *sqlx.DB
	logger *zap.Logger
	done   map[string]bool
}

// NewMigrator prepares the bookkeeping table and loads applied versions.
func NewMigrator(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS metadata`); err != nil {
		return nil, fmt.Errorf("create metadata schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS metadata.schema_migrations (version VARCHAR(255) PRIMARY KEY)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM metadata.schema_migrations`); err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	return &Migrator{db: db, logger: logger.Named("migrations"), done: done}, nil
}

// Status lists every registered migration in version order.
func (m *Migrator) Status() []Status {
	all := versions()
	out := make([]Status, 0, len(all))
	for _, v := range all {
		out = append(out, Status{Version: v, Applied: m.done[v]})
	}
	return out
}

// Up applies pending migrations in one transaction. step <= 0 applies all of them.
func (m *Migrator) Up(ctx context.Context, step int) (int, error) {
	pending := make([]*migration, 0)
	for _, v := range versions() {
		if !m.done[v] {
			pending = append(pending, registry[v])
		}
	}
	return m.run(ctx, pending, step, true)
}

// Down reverts applied migrations newest first. step <= 0 reverts all of them.
func (m *Migrator) Down(ctx context.Context, step int) (int, error) {
	all := versions()
	applied := make([]*migration, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if m.done[all[i]] {
			applied = append(applied, registry[all[i]])
		}
	}
	return m.run(ctx, applied, step, false)
}

func (m *Migrator) run(ctx context.Context, list []*migration, step int, up bool) (int, error) {
	if step > 0 && step < len(list) {
		list = list[:step]
	}
	if len(list) == 0 {
		return 0, nil
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin migration tx: %w", err)
	}

	for _, mg := range list {
		log := m.logger.With(zap.String("version", mg.version), zap.Bool("up", up))
		log.Info("running migration")

		apply, record := mg.down, `DELETE FROM metadata.schema_migrations WHERE version = $1`
		if up {
			apply, record = mg.up, `INSERT INTO metadata.schema_migrations (version) VALUES ($1)`
		}
		if err := apply(tx); err != nil {
			_ = tx.Rollback()
			log.Error("migration failed", zap.Error(err))
			return 0, fmt.Errorf("migration %s: %w", mg.version, err)
		}
		if _, err := tx.ExecContext(ctx, record, mg.version); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("record migration %s: %w", mg.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit migrations: %w", err)
	}
	for _, mg := range list {
		m.done[mg.version] = up
	}
	return len(list), nil
}

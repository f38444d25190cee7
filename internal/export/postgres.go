package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/fileripper/internal/definition"
	"github.com/JonMunkholm/fileripper/internal/record"
)

// copyColumns are the columns filled by COPY; id and its default are left to
// the table.
var copyColumns = []string{"file_name", "record", "ingested_at"}

// PostgresExporter stores every record as a jsonb row of the table named by
// collection_name. database_name, when set, is the schema.
type PostgresExporter struct {
	pool    *pgxpool.Pool
	table   pgx.Identifier
	target  string
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func newPostgres(ctx context.Context, def definition.ExportDefinition, opts Options) (*PostgresExporter, error) {
	target := redact(def.DBConnectionString)
	if def.CollectionName == "" {
		return nil, &PersistenceError{Target: target, Op: "configure",
			Err: errors.New("collection_name is required for postgres")}
	}

	poolConfig, err := pgxpool.ParseConfig(def.DBConnectionString)
	if err != nil {
		return nil, &PersistenceError{Target: target, Op: "parse connection string", Err: err}
	}
	poolConfig.MaxConns = 2

	connectCtx, cancel := context.WithTimeout(ctx, opts.DBTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, &PersistenceError{Target: target, Op: "connect", Err: err}
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, &PersistenceError{Target: target, Op: "ping", Err: err}
	}

	table := tableIdentifier(def)
	return &PostgresExporter{
		pool:    pool,
		table:   table,
		target:  fmt.Sprintf("%s %s", target, table.Sanitize()),
		timeout: opts.DBTimeout,
		logger:  opts.Logger,
		now:     time.Now,
	}, nil
}

// Export creates the table when absent and copies the records in one
// transaction.
func (e *PostgresExporter) Export(ctx context.Context, result record.Result) error {
	if len(result.Records) == 0 {
		e.logger.Debug("no records to copy", "target", e.target, "file", result.FileName)
		return nil
	}

	rows, err := copyRows(result, e.now())
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return &PersistenceError{Target: e.target, Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if _, err := tx.Exec(ctx, createTableSQL(e.table)); err != nil {
		return &PersistenceError{Target: e.target, Op: "create table", Err: err}
	}

	copied, err := tx.CopyFrom(ctx, e.table, copyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return &PersistenceError{Target: e.target, Op: "copy", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Target: e.target, Op: "commit", Err: err}
	}
	e.logger.Debug("records copied", "target", e.target, "rows", copied)
	return nil
}

func (e *PostgresExporter) Close() error {
	e.pool.Close()
	return nil
}

func tableIdentifier(def definition.ExportDefinition) pgx.Identifier {
	if def.DatabaseName != "" {
		return pgx.Identifier{def.DatabaseName, def.CollectionName}
	}
	return pgx.Identifier{def.CollectionName}
}

func createTableSQL(table pgx.Identifier) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id          BIGSERIAL PRIMARY KEY,
	file_name   TEXT NOT NULL,
	record      JSONB NOT NULL,
	ingested_at TIMESTAMPTZ NOT NULL
)`, table.Sanitize())
}

func copyRows(result record.Result, at time.Time) ([][]any, error) {
	rows := make([][]any, len(result.Records))
	for i, rec := range result.Records {
		doc, err := rec.MarshalJSON()
		if err != nil {
			return nil, err
		}
		rows[i] = []any{result.FileName, doc, at}
	}
	return rows, nil
}

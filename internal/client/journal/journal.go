// Package journal keeps a durable log of every remote mutation the console
// issued and whether the backend accepted it.
//
// Failed mutations are not retried and not rolled back, so the journal is
// the operator's record of what did not go through. It lives in a local
// SQLite file by default; a shared Postgres database can be used instead.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/leadconsole/internal/client/journal/migrations"
	"github.com/dmitrijs2005/leadconsole/internal/client/models"
	"github.com/dmitrijs2005/leadconsole/internal/client/reconcile"
)

type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectPostgres dialect = "postgres"
)

const (
	OutcomeAccepted = "accepted"
	OutcomeFailed   = "failed"
)

var ErrUnknownDriver = errors.New("unknown journal driver")

// Entry is one journaled mutation.
type Entry struct {
	ID         string
	Collection string
	Kind       string
	EntityID   string
	Outcome    string
	Error      string
	At         time.Time
}

// Summary counts journaled mutations by outcome.
type Summary struct {
	Accepted int
	Failed   int
}

type Journal struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
	newID   func() string
}

// Open connects to the journal database and applies pending migrations.
// driver is "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string) (*Journal, error) {
	var (
		d         dialect
		sqlDriver string
		gooseDial string
	)
	switch driver {
	case "", "sqlite":
		d, sqlDriver, gooseDial = dialectSQLite, "sqlite", "sqlite3"
	case "postgres", "pgx":
		d, sqlDriver, gooseDial = dialectPostgres, "pgx", "postgres"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if d == dialectSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := runMigrations(ctx, db, gooseDial); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	return &Journal{db: db, dialect: d, now: time.Now, newID: uuid.NewString}, nil
}

func runMigrations(ctx context.Context, db *sql.DB, gooseDialect string) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordMutation stores the outcome of one remote call.
func (j *Journal) RecordMutation(ctx context.Context, collection string, kind reconcile.Kind, id models.ID, callErr error) error {
	e := Entry{
		ID:         j.newID(),
		Collection: collection,
		Kind:       string(kind),
		EntityID:   id.String(),
		Outcome:    OutcomeAccepted,
		At:         j.now(),
	}
	if callErr != nil {
		e.Outcome = OutcomeFailed
		e.Error = callErr.Error()
	}
	return j.insert(ctx, j.db, e)
}

func (j *Journal) insert(ctx context.Context, db DBTX, e Entry) error {
	q := rebind(j.dialect, `INSERT INTO mutations (id, collection, kind, entity_id, outcome, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := db.ExecContext(ctx, q, e.ID, e.Collection, e.Kind, e.EntityID, e.Outcome, e.Error, e.At.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// Recent lists the newest entries first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	q := rebind(j.dialect, `SELECT id, collection, kind, entity_id, outcome, error, recorded_at
		FROM mutations ORDER BY recorded_at DESC, id LIMIT ?`)
	rows, err := j.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select journal entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			at int64
		)
		if err := rows.Scan(&e.ID, &e.Collection, &e.Kind, &e.EntityID, &e.Outcome, &e.Error, &at); err != nil {
			return nil, err
		}
		e.At = time.Unix(0, at).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summarize counts entries by outcome.
func (j *Journal) Summarize(ctx context.Context) (Summary, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM mutations GROUP BY outcome`)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize journal: %w", err)
	}
	defer rows.Close()

	var s Summary
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return Summary{}, err
		}
		switch outcome {
		case OutcomeAccepted:
			s.Accepted = n
		case OutcomeFailed:
			s.Failed = n
		}
	}
	return s, rows.Err()
}

// Prune deletes entries recorded before cutoff and returns how many went.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := withTx(ctx, j.db, func(ctx context.Context, tx DBTX) error {
		res, err := tx.ExecContext(ctx, rebind(j.dialect, `DELETE FROM mutations WHERE recorded_at < ?`), cutoff.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to prune journal: %w", err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		return nil
	})
	return removed, err
}

var _ reconcile.Recorder = (*Journal)(nil)

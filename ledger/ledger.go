// Package ledger stores the reports of endorsement runs in a SQLite database so that the
// outcome of earlier batches can be reviewed after the console output is gone.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/verdant/endorser/endorse"
)

var ErrNotFound = errors.New("run not found")

type Ledger struct {
	db *sql.DB
}

// Run is the summary line for one recorded run.
type Run struct {
	ID       string
	Batch    string
	Started  time.Time
	Endorsed int
	NoOutput int
	Failures int
}

// Open opens (creating if necessary) the ledger database with WAL mode enabled.
func Open(ctx context.Context, path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// connection scoped pragmas (foreign_keys) only hold if every statement uses the same connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	batch TEXT NOT NULL,
	output TEXT NOT NULL,
	started TEXT NOT NULL,
	finished TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS endorsed (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	subject TEXT NOT NULL,
	output TEXT NOT NULL,
	layout_pages INTEGER NOT NULL,
	photo_pages INTEGER NOT NULL,
	PRIMARY KEY(run_id, seq),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS no_output (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	subject TEXT NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY(run_id, seq),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS failures (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	subject TEXT NOT NULL,
	photo TEXT NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY(run_id, seq),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)

	return err
}

// Record stores a run report. Recording the same run twice replaces the earlier copy.
func (l *Ledger) Record(ctx context.Context, report *endorse.Report) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	for _, table := range []string{"endorsed", "no_output", "failures", "runs"} {
		column := "run_id"
		if table == "runs" {
			column = "id"
		}

		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, table, column), report.ID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, batch, output, started, finished) VALUES (?, ?, ?, ?, ?)`,
		report.ID, report.Batch, report.Output, format(report.Started), format(report.Finished)); err != nil {
		return err
	}

	for i, e := range report.Endorsed {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO endorsed (run_id, seq, subject, output, layout_pages, photo_pages) VALUES (?, ?, ?, ?, ?, ?)`,
			report.ID, i, e.Subject, e.Output, e.LayoutPages, e.PhotoPages); err != nil {
			return err
		}
	}

	for i, s := range report.NoOutput {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO no_output (run_id, seq, subject, reason) VALUES (?, ?, ?, ?)`,
			report.ID, i, s.Subject, s.Reason); err != nil {
			return err
		}
	}

	for i, f := range report.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO failures (run_id, seq, subject, photo, reason) VALUES (?, ?, ?, ?, ?)`,
			report.ID, i, f.Subject, f.Photo, f.Reason); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Latest returns the report of the most recently started run.
func (l *Ledger) Latest(ctx context.Context) (*endorse.Report, error) {
	var id string

	row := l.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY started DESC, id DESC LIMIT 1`)
	if err := row.Scan(&id); errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	return l.Get(ctx, id)
}

// Get returns the report for a run.
func (l *Ledger) Get(ctx context.Context, id string) (*endorse.Report, error) {
	report := endorse.Report{ID: id}

	var started, finished string

	row := l.db.QueryRowContext(ctx, `SELECT batch, output, started, finished FROM runs WHERE id = ?`, id)
	if err := row.Scan(&report.Batch, &report.Output, &started, &finished); errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, id)
	} else if err != nil {
		return nil, err
	}

	report.Started = parse(started)
	report.Finished = parse(finished)

	rows, err := l.db.QueryContext(ctx, `SELECT subject, output, layout_pages, photo_pages FROM endorsed WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var e endorse.Outcome
		if err := rows.Scan(&e.Subject, &e.Output, &e.LayoutPages, &e.PhotoPages); err != nil {
			rows.Close()
			return nil, err
		}
		report.Endorsed = append(report.Endorsed, e)
	}

	if err := done(rows); err != nil {
		return nil, err
	}

	if rows, err = l.db.QueryContext(ctx, `SELECT subject, reason FROM no_output WHERE run_id = ? ORDER BY seq`, id); err != nil {
		return nil, err
	}

	for rows.Next() {
		var s endorse.Skipped
		if err := rows.Scan(&s.Subject, &s.Reason); err != nil {
			rows.Close()
			return nil, err
		}
		report.NoOutput = append(report.NoOutput, s)
	}

	if err := done(rows); err != nil {
		return nil, err
	}

	if rows, err = l.db.QueryContext(ctx, `SELECT subject, photo, reason FROM failures WHERE run_id = ? ORDER BY seq`, id); err != nil {
		return nil, err
	}

	for rows.Next() {
		var f endorse.PhotoFailure
		if err := rows.Scan(&f.Subject, &f.Photo, &f.Reason); err != nil {
			rows.Close()
			return nil, err
		}
		report.Failures = append(report.Failures, f)
	}

	if err := done(rows); err != nil {
		return nil, err
	}

	return &report, nil
}

// List returns the most recent runs, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT r.id, r.batch, r.started,
       (SELECT COUNT(*) FROM endorsed e WHERE e.run_id = r.id),
       (SELECT COUNT(*) FROM no_output n WHERE n.run_id = r.id),
       (SELECT COUNT(*) FROM failures f WHERE f.run_id = r.id)
FROM runs r
ORDER BY r.started DESC, r.id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var started string

		if err := rows.Scan(&run.ID, &run.Batch, &started, &run.Endorsed, &run.NoOutput, &run.Failures); err != nil {
			return nil, err
		}

		run.Started = parse(started)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func done(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}

	return rows.Close()
}

// timestamps are stored fixed width so that they sort as text
const timestamp = "2006-01-02T15:04:05.000000000Z"

func format(t time.Time) string {
	return t.UTC().Format(timestamp)
}

func parse(s string) time.Time {
	t, _ := time.Parse(timestamp, s)

	return t
}

// Package sqlite is a SQLite-backed event archive, convenient for ad hoc
// SQL over a run's events.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LeJamon/goLamportSim/internal/storage/archive"
	_ "modernc.org/sqlite" // SQLite driver
)

// BackendName is the registry name of this backend.
const BackendName = "sqlite"

func init() {
	archive.RegisterBackend(BackendName, func(cfg *archive.Config) (archive.Archive, error) {
		return Open(context.Background(), cfg.Path)
	})
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	machine_id  INTEGER NOT NULL,
	seq         INTEGER NOT NULL,
	wall_time   INTEGER NOT NULL,
	description TEXT    NOT NULL,
	PRIMARY KEY (machine_id, seq)
)`

// Archive stores records in the events table.
type Archive struct {
	db *sql.DB
}

// Open opens or creates the database file at path and initializes the schema.
func Open(ctx context.Context, path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer per machine; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Store(ctx context.Context, rec archive.Record) error {
	if a.db == nil {
		return archive.ErrClosed
	}
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO events (machine_id, seq, wall_time, description) VALUES (?, ?, ?, ?)`,
		rec.MachineID, int64(rec.Seq), rec.WallTime.UnixNano(), rec.Description)
	return err
}

func (a *Archive) Records(ctx context.Context, machineID int) ([]archive.Record, error) {
	if a.db == nil {
		return nil, archive.ErrClosed
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT seq, wall_time, description FROM events WHERE machine_id = ? ORDER BY seq`, machineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []archive.Record
	for rows.Next() {
		var (
			seq   int64
			nanos int64
			desc  string
		)
		if err := rows.Scan(&seq, &nanos, &desc); err != nil {
			return nil, err
		}
		out = append(out, archive.Record{
			MachineID:   machineID,
			Seq:         uint64(seq),
			WallTime:    time.Unix(0, nanos),
			Description: desc,
		})
	}
	return out, rows.Err()
}

func (a *Archive) LastSeq(ctx context.Context, machineID int) (uint64, error) {
	if a.db == nil {
		return 0, archive.ErrClosed
	}
	var last int64
	err := a.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events WHERE machine_id = ?`, machineID).Scan(&last)
	if err != nil {
		return 0, err
	}
	return uint64(last), nil
}

func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

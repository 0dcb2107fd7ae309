// Package eventlog writes the append-only, per-machine event file consumed
// by the offline merge and analysis tooling.
//
// Each line has the form
//
//	[2006-01-02 15:04:05.000000] <description>
//
// and is flushed to stable storage before Append returns.
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/LeJamon/goLamportSim/internal/storage/archive"
)

// TimestampLayout is the wall-clock layout at the start of every line.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("event log is closed")

// Config locates the log and controls console echo.
type Config struct {
	// Dir is the directory holding machine_<id>.log files.
	Dir string

	// Echo mirrors every line to the process log.
	Echo bool
}

// FileName returns the log file name for a machine.
func FileName(machineID int) string {
	return fmt.Sprintf("machine_%d.log", machineID)
}

// Log is the event log of one machine. It is safe for concurrent use but
// the scheduling loop is expected to be its only writer.
type Log struct {
	mu        sync.Mutex
	machineID int
	file      *os.File
	path      string
	echo      bool
	now       func() time.Time
	archive   archive.Archive
	seq       uint64
}

// Option configures a Log.
type Option func(*Log)

// WithNow overrides the wall clock used for line timestamps.
func WithNow(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// WithArchive stores a copy of every line in a, numbering lines after the
// last sequence a already holds for the machine. The log takes ownership
// and closes a on Close; if Open fails, a stays with the caller.
func WithArchive(a archive.Archive) Option {
	return func(l *Log) {
		l.archive = a
	}
}

// Open opens (creating if needed) the log file for machineID in append mode.
func Open(cfg Config, machineID int, opts ...Option) (*Log, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(dir, FileName(machineID))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	l := &Log{
		machineID: machineID,
		file:      f,
		path:      path,
		echo:      cfg.Echo,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	// The file is appended to across runs; so is the archive.
	if l.archive != nil {
		last, err := l.archive.LastSeq(context.Background(), machineID)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("read archive sequence: %w", err)
		}
		l.seq = last
	}
	return l, nil
}

// Path returns the file path of the log.
func (l *Log) Path() string {
	return l.path
}

// Append writes one timestamped line and syncs it before returning.
// If an archive is attached the line is stored there too; an archive
// failure is returned but the file line is already durable.
func (l *Log) Append(description string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return ErrClosed
	}

	ts := l.now()
	stamp := ts.Format(TimestampLayout)
	if _, err := fmt.Fprintf(l.file, "[%s] %s\n", stamp, description); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync event log: %w", err)
	}
	l.seq++

	if l.echo {
		log.Printf("MachineID: %d [%s] %s", l.machineID, stamp, description)
	}

	if l.archive != nil {
		rec := archive.Record{
			MachineID:   l.machineID,
			Seq:         l.seq,
			WallTime:    ts,
			Description: description,
		}
		if err := l.archive.Store(context.Background(), rec); err != nil {
			return fmt.Errorf("archive event %d: %w", l.seq, err)
		}
	}
	return nil
}

// Appendf formats according to a format specifier and appends the result.
func (l *Log) Appendf(format string, args ...any) error {
	return l.Append(fmt.Sprintf(format, args...))
}

// Close flushes and closes the log and its archive. It is safe to call
// more than once.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	var errs []error
	if err := l.file.Sync(); err != nil {
		errs = append(errs, err)
	}
	if err := l.file.Close(); err != nil {
		errs = append(errs, err)
	}
	l.file = nil

	if l.archive != nil {
		if err := l.archive.Close(); err != nil {
			errs = append(errs, err)
		}
		l.archive = nil
	}
	return errors.Join(errs...)
}

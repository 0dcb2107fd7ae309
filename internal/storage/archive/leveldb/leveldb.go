// Package leveldb is a LevelDB-backed event archive.
package leveldb

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/LeJamon/goLamportSim/internal/storage/archive"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// BackendName is the registry name of this backend.
const BackendName = "leveldb"

func init() {
	archive.RegisterBackend(BackendName, func(cfg *archive.Config) (archive.Archive, error) {
		return Open(cfg.Path)
	})
}

// Archive stores records in a LevelDB database. Keys are big-endian
// (machine id, seq); values are [8 byte wall time nanos][description].
type Archive struct {
	mu sync.RWMutex
	db *leveldb.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Archive, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb: %w", err)
	}
	return &Archive{db: db}, nil
}

func recordKey(machineID int, seq uint64) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], uint64(machineID))
	binary.BigEndian.PutUint64(key[8:], seq)
	return key
}

func machineRange(machineID int) *util.Range {
	return &util.Range{
		Start: recordKey(machineID, 0),
		Limit: recordKey(machineID+1, 0),
	}
}

func (a *Archive) Store(_ context.Context, rec archive.Record) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return archive.ErrClosed
	}

	serialized := make([]byte, 8+len(rec.Description))
	binary.BigEndian.PutUint64(serialized[:8], uint64(rec.WallTime.UnixNano()))
	copy(serialized[8:], rec.Description)

	if err := a.db.Put(recordKey(rec.MachineID, rec.Seq), serialized, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}
	return nil
}

func (a *Archive) Records(ctx context.Context, machineID int) ([]archive.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return nil, archive.ErrClosed
	}

	iter := a.db.NewIterator(machineRange(machineID), nil)
	defer iter.Release()

	var out []archive.Record
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data := iter.Value()
		if len(data) < 8 {
			return nil, fmt.Errorf("corrupted record: too short")
		}
		out = append(out, archive.Record{
			MachineID:   machineID,
			Seq:         binary.BigEndian.Uint64(iter.Key()[8:]),
			WallTime:    time.Unix(0, int64(binary.BigEndian.Uint64(data[:8]))),
			Description: string(data[8:]),
		})
	}
	return out, iter.Error()
}

func (a *Archive) LastSeq(_ context.Context, machineID int) (uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return 0, archive.ErrClosed
	}

	iter := a.db.NewIterator(machineRange(machineID), nil)
	defer iter.Release()

	if !iter.Last() {
		return 0, iter.Error()
	}
	return binary.BigEndian.Uint64(iter.Key()[8:]), nil
}

func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

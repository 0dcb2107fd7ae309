// Package pebble is a Pebble-backed event archive.
package pebble

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/LeJamon/goLamportSim/internal/storage/archive"
	"github.com/cockroachdb/pebble"
	"github.com/ugorji/go/codec"
)

// BackendName is the registry name of this backend.
const BackendName = "pebble"

func init() {
	archive.RegisterBackend(BackendName, func(cfg *archive.Config) (archive.Archive, error) {
		return Open(cfg.Path)
	})
}

var msgpackHandle codec.MsgpackHandle

// value is the stored form of a record; the key carries machine and seq.
type value struct {
	WallTimeNanos int64  `codec:"t"`
	Description   string `codec:"d"`
}

// Archive stores records in a Pebble database keyed by
// big-endian (machine id, seq) so iteration yields sequence order.
type Archive struct {
	mu sync.RWMutex
	db *pebble.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Archive, error) {
	opts := &pebble.Options{
		MaxOpenFiles: 64,
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &Archive{db: db}, nil
}

func recordKey(machineID int, seq uint64) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], uint64(machineID))
	binary.BigEndian.PutUint64(key[8:], seq)
	return key
}

func (a *Archive) Store(_ context.Context, rec archive.Record) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return archive.ErrClosed
	}

	var buf []byte
	v := value{WallTimeNanos: rec.WallTime.UnixNano(), Description: rec.Description}
	if err := codec.NewEncoderBytes(&buf, &msgpackHandle).Encode(&v); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return a.db.Set(recordKey(rec.MachineID, rec.Seq), buf, pebble.Sync)
}

func (a *Archive) Records(ctx context.Context, machineID int) ([]archive.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return nil, archive.ErrClosed
	}

	lower := recordKey(machineID, 0)
	upper := recordKey(machineID+1, 0)
	iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []archive.Record
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var v value
		if err := codec.NewDecoderBytes(iter.Value(), &msgpackHandle).Decode(&v); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, archive.Record{
			MachineID:   machineID,
			Seq:         binary.BigEndian.Uint64(iter.Key()[8:]),
			WallTime:    time.Unix(0, v.WallTimeNanos),
			Description: v.Description,
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

	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: recordKey(machineID, 0),
		UpperBound: recordKey(machineID+1, 0),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

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

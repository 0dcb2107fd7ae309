package pebble

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/LeJamon/goLamportSim/internal/storage/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events")
	a, err := archive.Open(&archive.Config{Backend: BackendName, Path: path})
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	base := time.Date(2025, 3, 5, 3, 59, 59, 532396000, time.UTC)
	for seq := uint64(1); seq <= 3; seq++ {
		require.NoError(t, a.Store(ctx, archive.Record{
			MachineID:   7,
			Seq:         seq,
			WallTime:    base.Add(time.Duration(seq) * time.Second),
			Description: "Internal Event",
		}))
	}
	require.NoError(t, a.Store(ctx, archive.Record{MachineID: 8, Seq: 1, WallTime: base, Description: "other"}))

	recs, err := a.Records(ctx, 7)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, uint64(i+1), rec.Seq)
		assert.Equal(t, 7, rec.MachineID)
		assert.True(t, rec.WallTime.Equal(base.Add(time.Duration(i+1)*time.Second)))
	}

	other, err := a.Records(ctx, 8)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "other", other[0].Description)

	last, err := a.LastSeq(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last)
	last, err = a.LastSeq(ctx, 6)
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events")
	ctx := context.Background()

	a, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, a.Store(ctx, archive.Record{MachineID: 1, Seq: 1, WallTime: time.Now(), Description: "x"}))
	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.Store(ctx, archive.Record{}), archive.ErrClosed)

	a, err = Open(path)
	require.NoError(t, err)
	defer a.Close()
	recs, err := a.Records(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	last, err := a.LastSeq(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), last)
}

package config

// Archive backends selectable through archive.backend.
import (
	_ "github.com/LeJamon/goLamportSim/internal/storage/archive/leveldb"
	_ "github.com/LeJamon/goLamportSim/internal/storage/archive/pebble"
	_ "github.com/LeJamon/goLamportSim/internal/storage/archive/sqlite"
)

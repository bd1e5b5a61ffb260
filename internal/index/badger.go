package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
	"github.com/timshannon/badgerhold/v4"
)

// badgerManifest is present in every badger database directory.
const badgerManifest = "MANIFEST"

// ErrNotIndexDir is returned when a reset targets a directory that does not
// hold a badger database.
var ErrNotIndexDir = errors.New("not an index directory")

// BadgerConfig configures a persistent store.
type BadgerConfig struct {
	Path string
	// InMemory keeps the database off disk; Path is ignored.
	InMemory bool
	// Reset deletes an existing database at Path before opening.
	Reset bool
}

// BadgerStore persists records with badgerhold.
type BadgerStore struct {
	mu      sync.Mutex
	store   *badgerhold.Store
	nextSeq uint64
}

func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	options := badgerhold.DefaultOptions

	if cfg.InMemory {
		options.Options = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger path is required")
		}
		if cfg.Reset {
			if err := resetDir(cfg.Path); err != nil {
				return nil, err
			}
		}
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		options.Options = badger.DefaultOptions(cfg.Path)
	}
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	count, err := store.Count(&Record{}, nil)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	log.Info().
		Str("path", cfg.Path).
		Bool("inMemory", cfg.InMemory).
		Uint64("records", count).
		Msg("Badger index opened")

	return &BadgerStore{store: store, nextSeq: count}, nil
}

// resetDir removes an existing index directory. It refuses anything that is
// neither empty nor a badger database.
func resetDir(path string) error {
	entries, err := os.ReadDir(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index directory %s: %w", path, err)
	}
	if len(entries) > 0 {
		if _, err := os.Stat(filepath.Join(path, badgerManifest)); err != nil {
			return fmt.Errorf("refusing to reset %s: %w", path, ErrNotIndexDir)
		}
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to reset index at %s: %w", path, err)
	}
	return nil
}

func (s *BadgerStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Seq = s.nextSeq
	if err := s.store.Insert(rec.ID, rec); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return ErrDuplicateID
		}
		return err
	}
	s.nextSeq++
	return nil
}

func (s *BadgerStore) Has(_ context.Context, id string) (bool, error) {
	var rec Record
	err := s.store.Get(id, &rec)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *BadgerStore) Scan(ctx context.Context, fn func(Record) error) error {
	var records []Record
	if err := s.store.Find(&records, nil); err != nil {
		return err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *BadgerStore) Count(_ context.Context) (int, error) {
	n, err := s.store.Count(&Record{}, nil)
	return int(n), err
}

func (s *BadgerStore) Close() error {
	return s.store.Close()
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/korjavin/fridgeflow/pkg/logger"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("key not found")

// Store represents a BadgerDB storage instance
type Store struct {
	db     *badger.DB
	logger *logger.Logger
}

// New opens (or creates) a BadgerDB database in dataDir
func New(dataDir string) (*Store, error) {
	absPath, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	opts := badger.DefaultOptions(absPath)
	opts.Logger = nil // Disable Badger's internal logger

	return open(opts, absPath)
}

// NewInMemory opens a database that lives only in memory
func NewInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, "memory")
}

func open(opts badger.Options, where string) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	s := &Store{db: db, logger: logger.New("storage")}
	s.logger.Info("BadgerDB opened at %s", where)
	return s, nil
}

// Close closes the BadgerDB database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Set stores value as JSON under key
func (s *Store) Set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Get decodes the JSON stored under key into value
func (s *Store) Get(key string, value interface{}) error {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to get value: %w", err)
	}

	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Delete removes a key from the database
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// List returns up to limit keys with the given prefix. Keys come in ascending order,
// or descending when reverse is set. A limit of 0 or less means no limit.
func (s *Store) List(prefix string, limit int, reverse bool) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = reverse
		it := txn.NewIterator(opts)
		defer it.Close()

		prefixBytes := []byte(prefix)
		seek := prefixBytes
		if reverse {
			// In reverse mode Seek lands on the largest key <= seek
			seek = append(append([]byte{}, prefixBytes...), 0xFF)
		}
		for it.Seek(seek); it.ValidForPrefix(prefixBytes); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
			if limit > 0 && len(keys) >= limit {
				break
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	return keys, nil
}

// RunGC runs garbage collection on the database
func (s *Store) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}

// StartGCRoutine periodically runs garbage collection until ctx is cancelled
func (s *Store) StartGCRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				err := s.RunGC()
				// ErrNoRewrite only means there was nothing to collect
				if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
					s.logger.Error("BadgerDB GC error: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	s.logger.Info("Started BadgerDB GC routine with interval %v", interval)
}

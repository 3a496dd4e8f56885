// Package docstore keeps ordered collections of uploaded documents, one
// collection per section key, on a storage.Medium. Every mutation rewrites
// the whole collection.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"animalzone/site/internal/storage"
)

var (
	// ErrRead means the medium could not be reached while loading. Missing
	// or malformed values are not read errors.
	ErrRead = errors.New("collection read failed")
	// ErrWrite means the medium rejected a write; nothing was committed.
	ErrWrite = errors.New("collection write failed")
)

// Record is one uploaded document. The JSON names match the persisted layout
// of earlier browser-stored collections.
type Record struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Payload     string `json:"url"`
}

type Store struct {
	medium    storage.Medium
	namespace string
	locks     *keyLocks
	logger    *zap.Logger
}

func New(medium storage.Medium, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		medium: medium,
		locks:  newKeyLocks(),
		logger: logger,
	}
}

// Scoped returns a view of the store whose keys live under namespace. Views
// share the parent's per-key locks.
func (s *Store) Scoped(namespace string) *Store {
	ns := namespace
	if s.namespace != "" {
		ns = s.namespace + ":" + namespace
	}
	return &Store{
		medium:    storage.Scope(s.medium, namespace),
		namespace: ns,
		locks:     s.locks,
		logger:    s.logger,
	}
}

// Ping reports whether the underlying medium is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.medium.Ping(ctx)
}

// Load returns the collection stored under key, or an empty collection when
// nothing parseable is stored there.
func (s *Store) Load(ctx context.Context, key string) ([]Record, error) {
	raw, ok, err := s.medium.Get(ctx, key)
	if err != nil {
		return []Record{}, fmt.Errorf("%w: %s: %v", ErrRead, key, err)
	}
	if !ok {
		return []Record{}, nil
	}

	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.logger.Warn("discarding malformed collection",
			zap.String("namespace", s.namespace),
			zap.String("key", key),
			zap.Error(err),
		)
		return []Record{}, nil
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Save replaces the value under key with exactly records.
func (s *Store) Save(ctx context.Context, key string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrWrite, key, err)
	}
	if err := s.medium.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, key, err)
	}
	return nil
}

// Append adds record to the end of the collection and returns the collection
// as persisted.
func (s *Store) Append(ctx context.Context, key string, record Record) ([]Record, error) {
	unlock := s.locks.lock(s.lockKey(key))
	defer unlock()

	records, err := s.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	updated := make([]Record, 0, len(records)+1)
	updated = append(updated, records...)
	updated = append(updated, record)
	if err := s.Save(ctx, key, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove drops every record with the given id and returns the collection as
// persisted. An unknown id leaves the collection unchanged.
func (s *Store) Remove(ctx context.Context, key, id string) ([]Record, error) {
	unlock := s.locks.lock(s.lockKey(key))
	defer unlock()

	records, err := s.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	updated := make([]Record, 0, len(records))
	for _, record := range records {
		if record.ID != id {
			updated = append(updated, record)
		}
	}
	if err := s.Save(ctx, key, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Find returns the record with the given id.
func (s *Store) Find(ctx context.Context, key, id string) (Record, bool, error) {
	records, err := s.Load(ctx, key)
	if err != nil {
		return Record{}, false, err
	}
	for _, record := range records {
		if record.ID == id {
			return record, true, nil
		}
	}
	return Record{}, false, nil
}

func (s *Store) lockKey(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

// keyLocks hands out one mutex per key and forgets it once no caller holds
// or waits for it.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*keyLock)}
}

func (l *keyLocks) lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *keyLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

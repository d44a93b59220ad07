// Package state provides the versioned in-memory key-value store shared
// between an agent and its sandbox. Every operation runs under one coarse
// lock; snapshots are immutable full copies identified by a unix-seconds
// timestamp and usable as rollback targets.
package state

import (
	"sync"
	"time"
)

// defaultSnapshotLimit bounds the retained snapshot history.
const defaultSnapshotLimit = 10

// snapshot is an immutable full copy of the value map at creation time.
type snapshot struct {
	timestamp uint64
	values    map[string][]byte
}

// Store is a versioned mapping of keys to byte values with snapshot and
// rollback support. All methods are safe for concurrent use; each one is a
// single coarse-grained critical section, not a per-key lock.
type Store struct {
	mu            sync.Mutex
	values        map[string][]byte
	snapshots     []snapshot
	snapshotLimit int

	now func() uint64
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshotLimit overrides the retained snapshot count. Values below one
// are ignored.
func WithSnapshotLimit(limit int) Option {
	return func(s *Store) {
		if limit >= 1 {
			s.snapshotLimit = limit
		}
	}
}

// withClock injects a timestamp source for tests.
func withClock(now func() uint64) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		values:        make(map[string][]byte),
		snapshotLimit: defaultSnapshotLimit,
		now:           func() uint64 { return uint64(time.Now().Unix()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores value under key, replacing any previous value. The value is
// copied; callers may reuse the slice afterwards.
func (s *Store) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = cloneBytes(value)
}

// Get returns a copy of the current value for key. The second return value
// reports whether the key was present.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	return cloneBytes(v), true
}

// Delete removes key and reports whether a value existed.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	delete(s.values, key)
	return ok
}

// CreateSnapshot copies the entire current value mapping, appends it to the
// snapshot history, and returns the snapshot's timestamp identifier. When the
// history exceeds the limit, the oldest snapshot is evicted.
//
// Identifiers are unix seconds made strictly monotonic: two snapshots taken
// within the same second get distinct identifiers, so rollback lookup is
// never ambiguous.
func (s *Store) CreateSnapshot() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	if n := len(s.snapshots); n > 0 && ts <= s.snapshots[n-1].timestamp {
		ts = s.snapshots[n-1].timestamp + 1
	}

	s.snapshots = append(s.snapshots, snapshot{
		timestamp: ts,
		values:    cloneValues(s.values),
	})
	if len(s.snapshots) > s.snapshotLimit {
		s.snapshots = s.snapshots[1:]
	}
	return ts
}

// Rollback restores the value mapping captured at the snapshot identified by
// timestamp and discards every snapshot taken after it. Rollback is one-way:
// there is no redo. It reports false, without modifying anything, when no
// snapshot matches.
func (s *Store) Rollback(timestamp uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, snap := range s.snapshots {
		if snap.timestamp == timestamp {
			s.values = cloneValues(snap.values)
			s.snapshots = s.snapshots[:i+1]
			return true
		}
	}
	return false
}

// Keys returns the current keys in unspecified order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Size returns the number of live entries.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// Clear removes all live values. Snapshots are untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string][]byte)
}

// SnapshotTimestamps returns the identifiers of retained snapshots, oldest
// first.
func (s *Store) SnapshotTimestamps() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, len(s.snapshots))
	for i, snap := range s.snapshots {
		out[i] = snap.timestamp
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneValues(src map[string][]byte) map[string][]byte {
	dst := make(map[string][]byte, len(src))
	for k, v := range src {
		dst[k] = cloneBytes(v)
	}
	return dst
}

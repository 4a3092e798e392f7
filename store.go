package mftindex

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// storeShards is the number of independent locks the Entry Store is split
// across. A single global lock is not acceptable here: the Enumerator
// inserts in parallel with a Tailer that may still be draining its last
// buffer at restart, and Search reads entries from it while both of
// those run.
const storeShards = 32

type shard struct {
	mu      sync.RWMutex
	entries map[FRN]FileEntry
}

// EntryStore is the concurrent FRN -> FileEntry mapping that is the single
// source of truth for the index. Concurrent readers observe a consistent
// FileEntry for any one FRN (each shard's map is guarded by its own
// RWMutex); writes are not linearizable across FRNs, which the Tailer does
// not need.
type EntryStore struct {
	shards [storeShards]*shard
}

// NewEntryStore returns an empty Entry Store.
func NewEntryStore() *EntryStore {
	s := &EntryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[FRN]FileEntry)}
	}
	return s
}

func (s *EntryStore) shardFor(f FRN) *shard {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(f))
	return s.shards[xxhash.Sum64(b[:])%storeShards]
}

// Get returns the entry for f, if resident.
func (s *EntryStore) Get(f FRN) (FileEntry, bool) {
	sh := s.shardFor(f)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.entries[f]
	return e, ok
}

// Insert upserts an entry. Entries with an empty name are never inserted,
// per the Entry Store invariant.
func (s *EntryStore) Insert(f FRN, e FileEntry) {
	if e.Name == "" {
		return
	}
	sh := s.shardFor(f)
	sh.mu.Lock()
	sh.entries[f] = e
	sh.mu.Unlock()
}

// Remove deletes f, if present.
func (s *EntryStore) Remove(f FRN) {
	sh := s.shardFor(f)
	sh.mu.Lock()
	delete(sh.entries, f)
	sh.mu.Unlock()
}

// Clear empties the store, shard by shard.
func (s *EntryStore) Clear() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.entries = make(map[FRN]FileEntry)
		sh.mu.Unlock()
	}
}

// Len returns the number of resident entries. It is a point-in-time
// estimate under concurrent mutation, summed shard by shard.
func (s *EntryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Range calls fn for every resident (FRN, FileEntry) pair, shard by shard,
// holding only that shard's read lock at a time. fn must not call back
// into the EntryStore's write methods; a snapshot copy is taken per shard
// before fn is invoked, so mutations concurrent with Range are safe but
// may or may not be observed.
func (s *EntryStore) Range(fn func(FRN, FileEntry)) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		snap := make(map[FRN]FileEntry, len(sh.entries))
		for k, v := range sh.entries {
			snap[k] = v
		}
		sh.mu.RUnlock()
		for k, v := range snap {
			fn(k, v)
		}
	}
}

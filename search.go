package mftindex

import (
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

// maxSearchResults caps the number of full paths a query returns, after
// path reconstruction.
const maxSearchResults = 500

// newFold returns a fresh Unicode-aware case folder. A cases.Caser is
// stateful and not safe for concurrent use, so every goroutine that folds
// a name gets its own instead of sharing one.
func newFold() cases.Caser { return cases.Fold() }

type searchEntry struct {
	frn    FRN
	folded string
}

// SearchIndex is the parallel-scannable flat sequence of (FRN, folded name)
// pairs kept coherent with the Entry Store. A RWMutex guards the slice:
// Scan takes the read lock to grab the current slice, and Push, Retain and
// Rebuild each take the write lock for the duration of one call. Retain
// and Rebuild build a new backing array instead of rewriting the old one,
// so a Scan already in progress keeps reading the state it started from.
// The Tailer takes the write lock once per Push or Retain, not once for a
// whole journal buffer.
type SearchIndex struct {
	mu      sync.RWMutex
	entries []searchEntry
}

// NewSearchIndex returns an empty Search Index.
func NewSearchIndex() *SearchIndex { return &SearchIndex{} }

// Push appends a (frn, name) tuple. Callers that are replacing an existing
// tuple for frn (a rename) must call Retain to prune the stale one first.
func (s *SearchIndex) Push(f FRN, name string) {
	folded := newFold().String(name)
	s.mu.Lock()
	s.entries = append(s.entries, searchEntry{frn: f, folded: folded})
	s.mu.Unlock()
}

// Retain keeps only entries for which keep returns true.
func (s *SearchIndex) Retain(keep func(FRN) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]searchEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if keep(e.frn) {
			out = append(out, e)
		}
	}
	s.entries = out
}

// Rebuild bulk-replaces the Search Index from the given store, building
// the flat sequence in parallel.
func (s *SearchIndex) Rebuild(store *EntryStore) {
	type chunk struct {
		frn  FRN
		name string
	}
	var (
		mu      sync.Mutex
		gathered []chunk
	)
	store.Range(func(f FRN, e FileEntry) {
		mu.Lock()
		gathered = append(gathered, chunk{frn: f, name: e.Name})
		mu.Unlock()
	})

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	out := make([]searchEntry, len(gathered))
	var wg sync.WaitGroup
	chunkSize := (len(gathered) + workers - 1) / workers
	if chunkSize == 0 {
		chunkSize = 1
	}
	for start := 0; start < len(gathered); start += chunkSize {
		end := start + chunkSize
		if end > len(gathered) {
			end = len(gathered)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fold := newFold()
			for i := start; i < end; i++ {
				out[i] = searchEntry{frn: gathered[i].frn, folded: fold.String(gathered[i].name)}
			}
		}(start, end)
	}
	wg.Wait()

	s.mu.Lock()
	s.entries = out
	s.mu.Unlock()
}

// Scan tests every (frn, name) pair for a case-insensitive substring match
// of query, fanning the backing slice out across GOMAXPROCS workers via an
// errgroup. Results are unordered; the caller truncates to
// maxSearchResults after reconstructing paths.
func (s *SearchIndex) Scan(query string) []FRN {
	s.mu.RLock()
	entries := s.entries
	s.mu.RUnlock()

	if len(entries) == 0 {
		return nil
	}

	needle := newFold().String(query)
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > len(entries) {
		workers = len(entries)
	}

	chunkSize := (len(entries) + workers - 1) / workers
	results := make([][]FRN, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		start := w * chunkSize
		end := start + chunkSize
		if start >= len(entries) {
			continue
		}
		if end > len(entries) {
			end = len(entries)
		}
		g.Go(func() error {
			var local []FRN
			for _, e := range entries[start:end] {
				if strings.Contains(e.folded, needle) {
					local = append(local, e.frn)
				}
			}
			results[w] = local
			return nil
		})
	}
	_ = g.Wait() // scan workers never return an error

	var out []FRN
	for _, r := range results {
		out = append(out, r...)
		if len(out) >= maxSearchResults*4 {
			// Enough candidates gathered; path reconstruction will cut
			// down to maxSearchResults anyway. Bounding here keeps a
			// pathological "everything matches" query from allocating
			// the full index twice over.
			break
		}
	}
	return out
}

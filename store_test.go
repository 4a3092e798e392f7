package mftindex

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryStoreInsertGetRemove(t *testing.T) {
	s := NewEntryStore()

	s.Insert(1, FileEntry{ParentFRN: 5, Name: "a.txt"})
	e, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a.txt", e.Name)

	s.Remove(1)
	_, ok = s.Get(1)
	assert.False(t, ok)
}

func TestEntryStoreSkipsEmptyName(t *testing.T) {
	s := NewEntryStore()
	s.Insert(1, FileEntry{ParentFRN: 5, Name: ""})
	_, ok := s.Get(1)
	assert.False(t, ok, "empty-name entries are never inserted")
}

func TestEntryStoreClear(t *testing.T) {
	s := NewEntryStore()
	for i := FRN(0); i < 100; i++ {
		s.Insert(i, FileEntry{ParentFRN: 5, Name: "f"})
	}
	require.Equal(t, 100, s.Len())

	s.Clear()
	assert.Zero(t, s.Len())
}

func TestEntryStoreRangeVisitsEverything(t *testing.T) {
	s := NewEntryStore()
	want := map[FRN]bool{}
	for i := FRN(0); i < 500; i++ {
		s.Insert(i, FileEntry{ParentFRN: 5, Name: "f"})
		want[i] = true
	}

	got := map[FRN]bool{}
	var mu sync.Mutex
	s.Range(func(f FRN, e FileEntry) {
		mu.Lock()
		got[f] = true
		mu.Unlock()
	})

	assert.Equal(t, want, got)
}

func TestEntryStoreConcurrentInsertAndRange(t *testing.T) {
	s := NewEntryStore()
	var wg sync.WaitGroup

	for i := FRN(0); i < 1000; i++ {
		wg.Add(1)
		go func(f FRN) {
			defer wg.Done()
			s.Insert(f, FileEntry{ParentFRN: 5, Name: "f"})
		}(i)
	}

	// A concurrent Range must never panic or torn-read a single entry,
	// even while inserts are still landing.
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Range(func(f FRN, e FileEntry) {
			assert.Equal(t, "f", e.Name)
		})
	}()

	wg.Wait()
	assert.Equal(t, 1000, s.Len())
}

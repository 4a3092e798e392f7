package mftindex

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withFakeGateway substitutes the package-level gateway factory for the
// duration of a test, restoring it afterward.
func withFakeGateway(t *testing.T, gw VolumeGateway) {
	t.Helper()
	prev := openGateway
	openGateway = func(string) (VolumeGateway, error) { return gw, nil }
	t.Cleanup(func() { openGateway = prev })
}

func TestIndexBuildIndexAndSearch(t *testing.T) {
	r1 := encodeV2Record(10, 5, "Users", usnReasonFileCreate, fileAttributeDirectory)
	r2 := encodeV2Record(20, 10, "a.txt", usnReasonFileCreate, 0)

	gw := &fakeGateway{
		anchor:      Anchor{NextUSN: 100, JournalID: 1},
		enumBuffers: [][]byte{withCursor(1, r1, r2)},
	}
	withFakeGateway(t, gw)

	dir := t.TempDir()
	ix := New(`C:`, filepath.Join(dir, "mft_index.bin"))
	defer ix.Close()

	count, err := ix.BuildIndex()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	paths := ix.Search("a.txt")
	require.Len(t, paths, 1)
	assert.Equal(t, `C:\Users\a.txt`, paths[0])
}

func TestIndexSearchOnEmptyIndexReturnsEmpty(t *testing.T) {
	ix := New(`C:`, filepath.Join(t.TempDir(), "mft_index.bin"))
	defer ix.Close()

	assert.Empty(t, ix.Search("anything"))
}

func TestIndexOpenEmitsReadyAfterSnapshotLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mft_index.bin")

	store := NewEntryStore()
	store.Insert(10, FileEntry{ParentFRN: 5, Name: "Users", IsDir: true})
	require.NoError(t, SavePersisted(path, store, Anchor{NextUSN: 42, JournalID: 1}, nil))

	gw := &fakeGateway{anchor: Anchor{NextUSN: 42, JournalID: 1}}
	withFakeGateway(t, gw)

	sink := &readySink{ready: make(chan bool, 1)}
	ix := New(`C:`, path, WithChangeSink(sink))
	defer ix.Close()

	require.NoError(t, ix.Open())

	select {
	case ready := <-sink.ready:
		assert.True(t, ready)
	case <-time.After(time.Second):
		t.Fatal("index-ready was never signaled")
	}
}

func TestIndexOpenJournalMismatchForcesRebuildSignal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mft_index.bin")

	store := NewEntryStore()
	require.NoError(t, SavePersisted(path, store, Anchor{NextUSN: 1, JournalID: 1}, nil))

	// Volume now reports a different journal id, e.g. the journal was
	// deleted and recreated since the snapshot was written.
	gw := &fakeGateway{anchor: Anchor{NextUSN: 1, JournalID: 2}}
	withFakeGateway(t, gw)

	ix := New(`C:`, path)
	defer ix.Close()

	err := ix.Open()
	assert.ErrorIs(t, err, ErrJournalMismatch)
}

type readySink struct {
	ready chan bool
}

func (s *readySink) OnChanges([]ChangeEvent) {}
func (s *readySink) OnReady(ready bool)       { s.ready <- ready }

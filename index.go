// Package mftindex enumerates an NTFS volume's Master File Table directly
// via raw volume IOCTLs, keeps an in-memory FRN -> parent/name/kind
// mapping live by tailing the USN change journal, persists it across
// process runs, and answers substring file-name queries by reconstructing
// full paths bottom-up through parent links.
package mftindex

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Index is a volume-wide file-name index for one NTFS volume. The zero
// value is not usable; construct one with New.
type Index struct {
	driveLetter  string
	snapshotPath string
	sink         ChangeSink
	log          *logrus.Entry

	store *EntryStore
	index *SearchIndex

	mu     sync.Mutex
	tailer *Tailer
	stop   chan struct{}
}

// Option configures an Index at construction time.
type Option func(*Index)

// WithChangeSink sets the sink that receives the change stream and the
// readiness signal. The default is NopSink{}.
func WithChangeSink(sink ChangeSink) Option {
	return func(ix *Index) { ix.sink = sink }
}

// WithLogger overrides the default logrus.StandardLogger()-backed entry.
func WithLogger(log *logrus.Entry) Option {
	return func(ix *Index) { ix.log = log }
}

// New constructs an Index for driveLetter (e.g. "C:"), persisting snapshots
// at snapshotPath.
func New(driveLetter, snapshotPath string, opts ...Option) *Index {
	ix := &Index{
		driveLetter:  driveLetter,
		snapshotPath: snapshotPath,
		sink:         NopSink{},
		log:          logrus.NewEntry(logrus.StandardLogger()),
		store:        NewEntryStore(),
		index:        NewSearchIndex(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Open tries to load a persisted snapshot and, on success, resumes the
// Journal Tailer from its stored anchor, emitting the one-time
// index-ready event. If no snapshot exists, or its journal id no longer
// matches the volume (ErrJournalMismatch), the caller should follow up
// with BuildIndex to perform a full rebuild (Open never rebuilds on its
// own).
func (ix *Index) Open() error {
	anchor, err := LoadPersisted(ix.snapshotPath, ix.store, ix.index)
	if err != nil {
		ix.sink.OnReady(false)
		return err
	}

	gw, err := openGateway(ix.driveLetter)
	if err != nil {
		ix.sink.OnReady(false)
		return err
	}
	current, err := gw.QueryJournal()
	_ = gw.Close()
	if err != nil {
		ix.sink.OnReady(false)
		return err
	}

	if current.JournalID != anchor.JournalID {
		ix.sink.OnReady(false)
		return ErrJournalMismatch
	}
	// Open does not check whether the persisted NextUSN precedes the
	// journal's oldest retained USN. If it does, the Tailer's reads fail
	// and it handles them like any other failed read (log and retry);
	// ErrJournalTruncated is not returned to the caller.

	tailGW, err := openGateway(ix.driveLetter)
	if err != nil {
		ix.sink.OnReady(false)
		return err
	}
	ix.startTailer(anchor, tailGW)
	ix.sink.OnReady(true)
	return nil
}

// BuildIndex runs enumerate -> persist -> (re)start the tailer. It is
// idempotent over the lifetime of one process only in the sense that
// calling it again rebuilds from scratch; it is not safe to call
// concurrently with itself.
func (ix *Index) BuildIndex() (int, error) {
	ix.mu.Lock()
	if ix.stop != nil {
		close(ix.stop)
		ix.stop = nil
	}
	ix.mu.Unlock()

	gw, err := openGateway(ix.driveLetter)
	if err != nil {
		return 0, err
	}
	defer gw.Close()

	result, err := Enumerate(gw, ix.store, ix.index, ix.log)
	if err != nil {
		return 0, err
	}

	if err := SavePersisted(ix.snapshotPath, ix.store, result.Anchor, ix.log); err != nil {
		// Persistence failure does not invalidate the in-memory index;
		// surface it but keep running.
		ix.log.WithError(err).Error("failed to persist snapshot after rebuild")
	}

	tailGW, err := openGateway(ix.driveLetter)
	if err != nil {
		return result.Count, err
	}
	ix.startTailer(result.Anchor, tailGW)

	return result.Count, nil
}

func (ix *Index) startTailer(anchor Anchor, gw VolumeGateway) {
	if gw == nil {
		return
	}
	stop := make(chan struct{})

	ix.mu.Lock()
	ix.stop = stop
	ix.tailer = NewTailer(gw, ix.store, ix.index, ix.sink, ix.driveLetter, anchor, ix.log)
	tailer := ix.tailer
	ix.mu.Unlock()

	go tailer.Run(stop)
}

// Search returns at most 500 full paths whose basename contains query,
// case-insensitively. An empty query is legal and returns up to 500
// arbitrary entries. Search never fails; an empty index returns an empty
// slice. It never blocks on I/O.
func (ix *Index) Search(query string) []string {
	frns := ix.index.Scan(query)

	paths := make([]string, 0, len(frns))
	for _, f := range frns {
		path, ok := ReconstructPath(ix.store, ix.driveLetter, f)
		if !ok {
			continue
		}
		paths = append(paths, path)
		if len(paths) >= maxSearchResults {
			break
		}
	}
	return paths
}

// Close stops the background Tailer, if running. It does not close the
// EntryStore or SearchIndex; Search remains usable against whatever state
// was last observed.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.stop != nil {
		close(ix.stop)
		ix.stop = nil
	}
	return nil
}

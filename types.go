package mftindex

// FileEntry is the value half of the Entry Store mapping: a parent link, a
// name, and whether the entry is a directory. It never stores a full path;
// paths are reconstructed on demand by walking parent links.
type FileEntry struct {
	ParentFRN FRN
	Name      string
	IsDir     bool
}

// Anchor identifies a resume point on a volume's USN journal: the next USN
// to read from, and the journal instance that USN belongs to. An anchor is
// only valid against a volume whose journal currently reports the same
// JournalID.
type Anchor struct {
	NextUSN   int64
	JournalID uint64
}

// ChangeAction classifies a ChangeEvent. A rename surfaces as a delete of
// the old name followed by a create of the new one.
type ChangeAction string

const (
	ActionCreate ChangeAction = "create"
	ActionDelete ChangeAction = "delete"
)

// ChangeEvent is one name-index mutation, ready to hand to a host's event
// bus.
type ChangeEvent struct {
	Action ChangeAction
	Path   string
	IsDir  bool
}

// ChangeSink is the abstract host collaborator that receives change
// notifications and a one-time readiness signal. The GUI event bus, config
// directory resolution, and bootstrap glue that a real host provides around
// this are out of scope for this package; ChangeSink is the whole of the
// contract between the index and its host.
type ChangeSink interface {
	// OnChanges is called once per processed journal buffer with every
	// change decoded from it, in on-disk journal order.
	OnChanges(events []ChangeEvent)

	// OnReady is called once per Index.Open call: with true after a
	// successful snapshot load has started the Tailer, or with false when
	// Open fails.
	OnReady(ready bool)
}

// NopSink is a ChangeSink that discards everything; useful for callers
// that only want to poll Search and don't care about the change stream.
type NopSink struct{}

func (NopSink) OnChanges([]ChangeEvent) {}
func (NopSink) OnReady(bool)            {}

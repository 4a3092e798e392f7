package mftindex

import (
	"encoding/binary"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mhzipy/mftindex/internal"
)

// tailRetryDelay is the sleep between empty or failed journal reads. It
// keeps the Tailer from busy-looping without wedging responsiveness; the
// IOCTL's own timeout (tailReadTimeoutUnits) is kept small for the same
// reason.
const tailRetryDelay = 500 * time.Millisecond

// tailReadTimeoutUnits is the FSCTL_READ_USN_JOURNAL timeout, in the units
// the IOCTL itself defines (100ns ticks on real NTFS); 1 is "don't busy
// wait, but don't block long either."
const tailReadTimeoutUnits = 1

// Tailer reads the USN journal from an anchor forever, applying
// create/rename/delete semantics to an EntryStore and SearchIndex and
// emitting batched ChangeEvents to a ChangeSink. It terminates only when
// the stop channel passed to Run is closed or the process dies; a failed or empty read is
// swallowed to a sleep-and-retry, never a returned error, because a name
// index's tailer must never die silently out from under its host.
type Tailer struct {
	gw          VolumeGateway
	store       *EntryStore
	index       *SearchIndex
	sink        ChangeSink
	driveLetter string
	log         *logrus.Entry

	anchor Anchor
}

// NewTailer constructs a Tailer that will resume from anchor.
func NewTailer(gw VolumeGateway, store *EntryStore, index *SearchIndex, sink ChangeSink, driveLetter string, anchor Anchor, log *logrus.Entry) *Tailer {
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Tailer{
		gw:          gw,
		store:       store,
		index:       index,
		sink:        sink,
		driveLetter: driveLetter,
		anchor:      anchor,
		log:         log,
	}
}

// Anchor returns the Tailer's current resume point.
func (t *Tailer) Anchor() Anchor { return t.anchor }

// Run loops forever (or until stop is closed), reading and applying
// journal buffers.
func (t *Tailer) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		buf, err := t.gw.ReadJournal(t.anchor, allReasons, tailReadTimeoutUnits, 0)
		if err != nil {
			t.log.WithError(err).Debug("journal read failed, retrying")
			sleepOrStop(stop, tailRetryDelay)
			continue
		}

		if len(buf) <= 8 {
			sleepOrStop(stop, tailRetryDelay)
			continue
		}

		// Advance the anchor immediately, even if nothing after this
		// point decodes: this guarantees forward progress and avoids
		// re-processing the same bytes forever on a persistent parse
		// failure later in the buffer.
		t.anchor.NextUSN = int64(binary.LittleEndian.Uint64(buf))

		events := t.applyBuffer(buf)
		if len(events) > 0 {
			t.sink.OnChanges(events)
		}
	}
}

func (t *Tailer) applyBuffer(buf []byte) []ChangeEvent {
	var events []ChangeEvent

	decErr := decodeRecords(buf, 8, len(buf), func(rec Record) {
		if debug {
			internal.DebugReason(rec.Name, rec.Reason)
		}
		switch {
		case rec.Reason&(usnReasonFileDelete|usnReasonRenameOldName) != 0:
			if entry, ok := t.store.Get(rec.FRN); ok {
				if path, ok := ReconstructPath(t.store, t.driveLetter, rec.FRN); ok {
					events = append(events, ChangeEvent{Action: ActionDelete, Path: path, IsDir: entry.IsDir})
				}
			}
			t.store.Remove(rec.FRN)
			t.index.Retain(func(f FRN) bool { return f != rec.FRN })

		case rec.Reason&(usnReasonFileCreate|usnReasonRenameNewName) != 0:
			t.store.Insert(rec.FRN, FileEntry{
				ParentFRN: rec.ParentFRN,
				Name:      rec.Name,
				IsDir:     rec.IsDir,
			})
			t.index.Retain(func(f FRN) bool { return f != rec.FRN })
			t.index.Push(rec.FRN, rec.Name)

			if path, ok := ReconstructPath(t.store, t.driveLetter, rec.FRN); ok {
				events = append(events, ChangeEvent{Action: ActionCreate, Path: path, IsDir: rec.IsDir})
			}

		default:
			// Data modify, close, attribute change, etc: observed, not
			// acted on. Ordinary no-ops for a name index.
		}
	})
	if decErr != nil {
		t.log.WithError(decErr).Debug("usn record decode stopped early")
	}

	return events
}

func sleepOrStop(stop <-chan struct{}, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-stop:
	case <-timer.C:
	}
}

package mftindex

import (
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EnumerateResult is the outcome of a successful MFT snapshot: the number
// of entries inserted, and the anchor the Journal Tailer should resume
// from.
type EnumerateResult struct {
	Count  int
	Anchor Anchor
}

// Enumerate drives the MFT-enumeration IOCTL to completion against gw,
// populating store (which is cleared first) and rebuilding index from it.
// The USN bound taken from QueryJournal joins the snapshot to the later
// tail on a single USN coordinate: every change below that bound is
// visible to this snapshot, every change at or above it is visible to the
// subsequent tail, so nothing is missed or double-counted.
func Enumerate(gw VolumeGateway, store *EntryStore, index *SearchIndex, log *logrus.Entry) (EnumerateResult, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	runID := uuid.NewString()
	log = log.WithField("run_id", runID)

	store.Clear()

	journal, err := gw.QueryJournal()
	if err != nil {
		return EnumerateResult{}, err
	}

	startFRN := FRN(0)
	const lowUSN = int64(0)
	highUSN := journal.NextUSN

	count := 0
	for {
		buf, eof, err := gw.EnumMFT(startFRN, lowUSN, highUSN)
		if err != nil {
			return EnumerateResult{}, err
		}
		if eof {
			break
		}
		if len(buf) < 8 {
			break
		}

		nextFRN := FRN(binary.LittleEndian.Uint64(buf))
		if nextFRN == startFRN {
			return EnumerateResult{}, ErrEnumStalled
		}
		startFRN = nextFRN

		if decErr := decodeRecords(buf, 8, len(buf), func(rec Record) {
			store.Insert(rec.FRN, FileEntry{
				ParentFRN: rec.ParentFRN,
				Name:      rec.Name,
				IsDir:     rec.IsDir,
			})
			count++
		}); decErr != nil {
			// A decode error here means the buffer itself is malformed;
			// since we hold the OS's own freshly-returned bytes, treat
			// it as fatal for the enumeration rather than silently
			// under-counting the volume.
			return EnumerateResult{}, decErr
		}

		traceMsg("enumerate: %d bytes, cursor now %s, %d entries so far", len(buf), startFRN, count)
	}

	index.Rebuild(store)

	log.WithFields(logrus.Fields{
		"count":        store.Len(),
		"snapshot_usn": journal.NextUSN,
		"journal_id":   journal.JournalID,
	}).Info("mft enumeration complete")

	return EnumerateResult{
		Count:  store.Len(),
		Anchor: Anchor{NextUSN: journal.NextUSN, JournalID: journal.JournalID},
	}, nil
}

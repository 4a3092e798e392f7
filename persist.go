package mftindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// snapshotMagic identifies a persisted index file.
var snapshotMagic = [4]byte{'M', 'F', 'T', 'X'}

// snapshotVersion1 is the only schema this package writes; the version
// byte exists so a future schema bump can be rejected (or migrated)
// cleanly instead of silently misreading bytes.
const snapshotVersion1 = 1

// maxNameLen bounds a single persisted name, guarding against a corrupt
// file driving an enormous allocation.
const maxNameLen = math.MaxUint16

// SavePersisted writes store, nextUSN, and journalID to path, streaming
// entry by entry so the encoded file is never held in memory as a whole;
// the one copy it makes is EntryStore.Range's copy of one shard at a
// time. It writes to path+".tmp" and renames
// over path, so a reader never observes a partially-written file.
func SavePersisted(path string, store *EntryStore, anchor Anchor, log *logrus.Entry) error {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return &PersistError{Path: path, Op: "create", Err: err}
	}

	w := bufio.NewWriter(f)
	if err := writeSnapshotHeader(w, store.Len(), anchor); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return &PersistError{Path: path, Op: "write", Err: err}
	}

	var writeErr error
	store.Range(func(frn FRN, e FileEntry) {
		if writeErr != nil {
			return
		}
		writeErr = writeSnapshotEntry(w, frn, e)
	})
	if writeErr == nil {
		writeErr = w.Flush()
	}
	if writeErr == nil {
		writeErr = f.Close()
	} else {
		f.Close()
	}
	if writeErr != nil {
		os.Remove(tmpPath)
		return &PersistError{Path: path, Op: "write", Err: writeErr}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return &PersistError{Path: path, Op: "rename", Err: err}
	}

	log.WithFields(logrus.Fields{
		"path":       path,
		"count":      store.Len(),
		"next_usn":   anchor.NextUSN,
		"journal_id": anchor.JournalID,
	}).Info("snapshot saved")
	return nil
}

func writeSnapshotHeader(w io.Writer, count int, anchor Anchor) error {
	if _, err := w.Write(snapshotMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(snapshotVersion1)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, anchor.NextUSN); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, anchor.JournalID); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, uint64(count))
}

func writeSnapshotEntry(w io.Writer, frn FRN, e FileEntry) error {
	nameBytes := []byte(e.Name)
	if len(nameBytes) > maxNameLen {
		nameBytes = nameBytes[:maxNameLen]
	}

	var isDir uint8
	if e.IsDir {
		isDir = 1
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(frn)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(e.ParentFRN)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, isDir); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(nameBytes))); err != nil {
		return err
	}
	_, err := w.Write(nameBytes)
	return err
}

// LoadPersisted reads a snapshot written by SavePersisted back into store,
// returning the anchor it was saved with. The Search Index is rebuilt in
// parallel from the freshly-loaded store before returning.
func LoadPersisted(path string, store *EntryStore, index *SearchIndex) (Anchor, error) {
	f, err := os.Open(path)
	if err != nil {
		return Anchor{}, &PersistError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return Anchor{}, &PersistError{Path: path, Op: "read header", Err: err}
	}
	if magic != snapshotMagic {
		return Anchor{}, &PersistError{Path: path, Op: "read header", Err: fmt.Errorf("not a %s snapshot file", filepath.Base(path))}
	}

	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return Anchor{}, &PersistError{Path: path, Op: "read header", Err: err}
	}
	if version != snapshotVersion1 {
		return Anchor{}, &PersistError{Path: path, Op: "read header", Err: fmt.Errorf("unsupported snapshot schema version %d", version)}
	}

	var anchor Anchor
	if err := binary.Read(r, binary.LittleEndian, &anchor.NextUSN); err != nil {
		return Anchor{}, &PersistError{Path: path, Op: "read header", Err: err}
	}
	if err := binary.Read(r, binary.LittleEndian, &anchor.JournalID); err != nil {
		return Anchor{}, &PersistError{Path: path, Op: "read header", Err: err}
	}

	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return Anchor{}, &PersistError{Path: path, Op: "read header", Err: err}
	}

	store.Clear()
	for i := uint64(0); i < count; i++ {
		frn, entry, err := readSnapshotEntry(r)
		if err != nil {
			return Anchor{}, &PersistError{Path: path, Op: "read entry", Err: err}
		}
		store.Insert(frn, entry)
	}

	index.Rebuild(store)
	return anchor, nil
}

func readSnapshotEntry(r io.Reader) (FRN, FileEntry, error) {
	var frnRaw, parentRaw uint64
	var isDir uint8
	var nameLen uint16

	if err := binary.Read(r, binary.LittleEndian, &frnRaw); err != nil {
		return 0, FileEntry{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &parentRaw); err != nil {
		return 0, FileEntry{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &isDir); err != nil {
		return 0, FileEntry{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return 0, FileEntry{}, err
	}

	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return 0, FileEntry{}, err
	}

	return FRN(frnRaw), FileEntry{
		ParentFRN: FRN(parentRaw),
		Name:      string(nameBytes),
		IsDir:     isDir != 0,
	}, nil
}

package mftindex

import "errors"

// fakeGateway is a scriptable VolumeGateway for testing the Enumerator and
// Tailer without a real NTFS volume.
type fakeGateway struct {
	anchor     Anchor
	journalErr error

	enumBuffers [][]byte
	enumIdx     int
	enumErr     error

	readBuffers [][]byte
	readIdx     int
	readErr     error

	closed bool
}

func (g *fakeGateway) QueryJournal() (Anchor, error) {
	return g.anchor, g.journalErr
}

func (g *fakeGateway) EnumMFT(startFRN FRN, lowUSN, highUSN int64) ([]byte, bool, error) {
	if g.enumErr != nil {
		return nil, false, g.enumErr
	}
	if g.enumIdx >= len(g.enumBuffers) {
		return nil, true, nil
	}
	buf := g.enumBuffers[g.enumIdx]
	g.enumIdx++
	return buf, false, nil
}

func (g *fakeGateway) ReadJournal(anchor Anchor, reasonMask uint32, timeoutUnits int64, bytesToWaitFor uint32) ([]byte, error) {
	if g.readErr != nil {
		return nil, g.readErr
	}
	if g.readIdx >= len(g.readBuffers) {
		return nil, errors.New("fakeGateway: no more scripted journal buffers")
	}
	buf := g.readBuffers[g.readIdx]
	g.readIdx++
	return buf, nil
}

func (g *fakeGateway) Close() error {
	g.closed = true
	return nil
}

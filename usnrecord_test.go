package mftindex

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeV2Record builds one USN_RECORD_V2-shaped record for tests: header
// through FileNameOffset, then the UTF-16LE name inline, matching the
// layout decodeRecords expects.
func encodeV2Record(frn, parentFRN FRN, name string, reason, attrs uint32) []byte {
	units := utf16.Encode([]rune(name))
	nameBytes := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(nameBytes[i*2:], u)
	}

	recordLen := v2MinRecordSize + len(nameBytes)
	buf := make([]byte, recordLen)

	binary.LittleEndian.PutUint32(buf[offRecordLength:], uint32(recordLen))
	binary.LittleEndian.PutUint16(buf[offMajorVersion:], 2)
	binary.LittleEndian.PutUint16(buf[offMinorVersion:], 0)
	binary.LittleEndian.PutUint64(buf[offFileReferenceNumber:], uint64(frn))
	binary.LittleEndian.PutUint64(buf[offParentFileReferenceNumber:], uint64(parentFRN))
	binary.LittleEndian.PutUint32(buf[offReason:], reason)
	binary.LittleEndian.PutUint32(buf[offFileAttributes:], attrs)
	binary.LittleEndian.PutUint16(buf[offFileNameLength:], uint16(len(nameBytes)))
	binary.LittleEndian.PutUint16(buf[offFileNameOffset:], uint16(v2MinRecordSize))
	copy(buf[v2MinRecordSize:], nameBytes)

	return buf
}

func TestDecodeRecordsSingleRecord(t *testing.T) {
	rec := encodeV2Record(100, 5, "hello.txt", usnReasonFileCreate, 0)

	var got []Record
	err := decodeRecords(rec, 0, len(rec), func(r Record) { got = append(got, r) })
	require.Nil(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, FRN(100), got[0].FRN)
	assert.Equal(t, FRN(5), got[0].ParentFRN)
	assert.Equal(t, "hello.txt", got[0].Name)
	assert.False(t, got[0].IsDir)
}

func TestDecodeRecordsDirectoryFlag(t *testing.T) {
	rec := encodeV2Record(7, 5, "Users", usnReasonFileCreate, fileAttributeDirectory)

	var got []Record
	require.Nil(t, decodeRecords(rec, 0, len(rec), func(r Record) { got = append(got, r) }))
	require.Len(t, got, 1)
	assert.True(t, got[0].IsDir)
}

func TestDecodeRecordsSkipsEmptyName(t *testing.T) {
	rec := encodeV2Record(7, 5, "", usnReasonFileCreate, 0)

	var got []Record
	require.Nil(t, decodeRecords(rec, 0, len(rec), func(r Record) { got = append(got, r) }))
	assert.Empty(t, got)
}

func TestDecodeRecordsZeroLengthStopsIteration(t *testing.T) {
	buf := make([]byte, 16) // all zero: RecordLength == 0

	var calls int
	err := decodeRecords(buf, 0, len(buf), func(r Record) { calls++ })
	assert.Nil(t, err)
	assert.Zero(t, calls)
}

func TestDecodeRecordsMultipleRecordsInOneBuffer(t *testing.T) {
	r1 := encodeV2Record(1, 5, "a.txt", usnReasonFileCreate, 0)
	r2 := encodeV2Record(2, 5, "b.txt", usnReasonFileDelete, 0)
	buf := append(append([]byte{}, r1...), r2...)

	var names []string
	require.Nil(t, decodeRecords(buf, 0, len(buf), func(r Record) { names = append(names, r.Name) }))
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestDecodeRecordsStopsAtBufferBoundary(t *testing.T) {
	rec := encodeV2Record(1, 5, "a.txt", usnReasonFileCreate, 0)
	truncated := rec[:len(rec)-2] // record claims a length the buffer doesn't have

	var calls int
	err := decodeRecords(truncated, 0, len(truncated), func(r Record) { calls++ })
	assert.Nil(t, err)
	assert.Zero(t, calls)
}

func TestDecodeRecordsRejectsUnsupportedVersion(t *testing.T) {
	rec := encodeV2Record(1, 5, "a.txt", usnReasonFileCreate, 0)
	binary.LittleEndian.PutUint16(rec[offMajorVersion:], 4)

	err := decodeRecords(rec, 0, len(rec), func(r Record) {})
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "unsupported usn record version")
}

func TestDecodeUTF16LEReplacesIllFormedSequences(t *testing.T) {
	// An unpaired high surrogate.
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, 0xD800)

	got := decodeUTF16LE(b)
	assert.Equal(t, "�", got)
}

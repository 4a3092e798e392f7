package mftindex

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// USN reason-mask bits this package acts on. Data modify, close, and
// attribute-change bits are deliberately absent: they are observed (the
// Tailer will see them in Record.Reason) but are no-ops for a name index.
const (
	usnReasonFileCreate    = 0x00000100
	usnReasonFileDelete    = 0x00000200
	usnReasonRenameOldName = 0x00001000
	usnReasonRenameNewName = 0x00002000

	// allReasons is the mask passed to FSCTL_READ_USN_JOURNAL; the Tailer
	// wants to see everything so it can log unhandled reasons, even
	// though it only acts on the four above.
	allReasons = 0xFFFFFFFF

	fileAttributeDirectory = 0x00000010
)

// USN_RECORD_V2 field offsets, per
// https://learn.microsoft.com/en-us/windows/win32/api/winioctl/ns-winioctl-usn_record_v2
const (
	offRecordLength              = 0
	offMajorVersion              = 4
	offMinorVersion              = 6
	offFileReferenceNumber       = 8
	offParentFileReferenceNumber = 16
	offReason                    = 40
	offFileAttributes            = 52
	offFileNameLength            = 56
	offFileNameOffset            = 58

	v2MinRecordSize  = 60 // header through FileNameOffset, name itself is variable
	v2SupportedMajor = 2
)

// Record is one decoded USN_RECORD_V2: a file reference, its parent, its
// name, directory-ness, and the reason mask that produced it.
type Record struct {
	FRN       FRN
	ParentFRN FRN
	Name      string
	IsDir     bool
	Reason    uint32
}

// decodeRecords walks buf[start:end], a region of bytes returned by
// FSCTL_ENUM_USN_DATA or FSCTL_READ_USN_JOURNAL (past the leading 8-byte
// cursor/USN), calling visit once per record with a non-empty name. It
// stops cleanly (nil error) at a zero-length record or when a record
// would exceed end; it never reads past offset+record_length for any one
// record. A malformed record (unsupported version, filename out of
// bounds) is reported as a *DecodeError and iteration stops (the caller
// already has the advanced anchor and simply continues from the next
// buffer).
func decodeRecords(buf []byte, start, end int, visit func(Record)) *DecodeError {
	offset := start
	for offset < end {
		if offset+8 > end {
			break
		}
		recordLength := int(binary.LittleEndian.Uint32(buf[offset+offRecordLength:]))
		if recordLength == 0 {
			break
		}
		if offset+recordLength > end {
			break
		}

		majorVersion := binary.LittleEndian.Uint16(buf[offset+offMajorVersion:])
		if majorVersion != v2SupportedMajor {
			return &DecodeError{Offset: offset, Reason: fmt.Sprintf("unsupported usn record version %d (only V2 is handled)", majorVersion)}
		}
		if recordLength < v2MinRecordSize {
			return &DecodeError{Offset: offset, Reason: "record shorter than a V2 header"}
		}

		nameLen := int(binary.LittleEndian.Uint16(buf[offset+offFileNameLength:]))
		nameOff := int(binary.LittleEndian.Uint16(buf[offset+offFileNameOffset:]))

		if nameLen > 0 {
			nameStart := offset + nameOff
			nameEnd := nameStart + nameLen
			if nameOff < 0 || nameEnd > offset+recordLength || nameEnd > end {
				return &DecodeError{Offset: offset, Reason: "filename extends past record bounds"}
			}

			name := decodeUTF16LE(buf[nameStart:nameEnd])
			if name != "" {
				frn := FRN(binary.LittleEndian.Uint64(buf[offset+offFileReferenceNumber:]))
				parentFRN := FRN(binary.LittleEndian.Uint64(buf[offset+offParentFileReferenceNumber:]))
				reason := binary.LittleEndian.Uint32(buf[offset+offReason:])
				attrs := binary.LittleEndian.Uint32(buf[offset+offFileAttributes:])

				visit(Record{
					FRN:       frn,
					ParentFRN: parentFRN,
					Name:      name,
					IsDir:     attrs&fileAttributeDirectory != 0,
					Reason:    reason,
				})
			}
		}

		offset += recordLength
	}
	return nil
}

// decodeUTF16LE decodes a little-endian UTF-16 byte slice (as stored in a
// USN_RECORD_V2 filename field) to a string, replacing ill-formed
// sequences with the Unicode replacement character.
func decodeUTF16LE(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units))
}

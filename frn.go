package mftindex

import "fmt"

// FRN is a 64-bit NTFS file reference number: the low 48 bits are the MFT
// record index, the high 16 bits are a reuse sequence number. Equality of
// the full value identifies one incarnation of a file; equality of the low
// 48 bits alone identifies the slot, which NTFS recycles.
type FRN uint64

// recordIndexMask isolates the low 48 bits of an FRN.
const recordIndexMask FRN = 0x0000_FFFF_FFFF_FFFF

// rootRecordIndex is the well-known MFT record index of the volume root
// directory.
const rootRecordIndex = 5

// RecordIndex returns the low 48 bits of the FRN, the MFT slot.
func (f FRN) RecordIndex() uint64 { return uint64(f & recordIndexMask) }

// Sequence returns the high 16 bits of the FRN, the slot's reuse counter.
func (f FRN) Sequence() uint16 { return uint16(f >> 48) }

// IsRootSentinel reports whether f's record index is the NTFS root
// directory (index 5), regardless of sequence number.
func (f FRN) IsRootSentinel() bool { return f.RecordIndex() == rootRecordIndex }

func (f FRN) String() string { return fmt.Sprintf("%#x", uint64(f)) }

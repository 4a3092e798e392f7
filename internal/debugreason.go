// Package internal holds small platform-specific helpers shared by the
// root package that don't belong in the public API.
package internal

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Reason USN bits, duplicated from the root package rather than imported
// from it: this package must stay import-free of the root package to avoid
// a cycle (the root package imports internal for tracing).
const (
	usnReasonFileCreate    = 0x00000100
	usnReasonFileDelete    = 0x00000200
	usnReasonRenameOldName = 0x00001000
	usnReasonRenameNewName = 0x00002000
)

var reasonNames = []struct {
	n string
	m uint32
}{
	{"USN_REASON_FILE_CREATE", usnReasonFileCreate},
	{"USN_REASON_FILE_DELETE", usnReasonFileDelete},
	{"USN_REASON_RENAME_OLD_NAME", usnReasonRenameOldName},
	{"USN_REASON_RENAME_NEW_NAME", usnReasonRenameNewName},
}

// DebugReason writes a human-readable, timestamped breakdown of a
// USN_RECORD's Reason bitmask to stderr.
func DebugReason(name string, mask uint32) {
	var (
		l       []string
		unknown = mask
	)
	for _, n := range reasonNames {
		if mask&n.m == n.m {
			l = append(l, n.n)
			unknown ^= n.m
		}
	}
	if unknown > 0 {
		l = append(l, fmt.Sprintf("0x%x", unknown))
	}
	fmt.Fprintf(os.Stderr, "MFTINDEX_DEBUG: %s  %2d:%-55s → %q\n",
		time.Now().Format("15:04:05.000000000"), mask, strings.Join(l, " | "), name)
}

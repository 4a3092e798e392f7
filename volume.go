package mftindex

// VolumeGateway wraps the three IOCTLs the index needs and the lifecycle of
// the raw volume handle they run against. Everything unsafe lives behind
// this interface; enumerate.go and tail.go only ever see it, which is what
// lets them be tested without a real NTFS volume.
type VolumeGateway interface {
	// QueryJournal issues FSCTL_QUERY_USN_JOURNAL and returns the volume's
	// current anchor.
	QueryJournal() (Anchor, error)

	// EnumMFT issues FSCTL_ENUM_USN_DATA with the given cursor and USN
	// bound. It returns the raw output buffer (including its leading
	// 8-byte next-cursor prefix) truncated to bytesReturned, or eof=true
	// once the MFT has been fully walked.
	EnumMFT(startFRN FRN, lowUSN, highUSN int64) (buf []byte, eof bool, err error)

	// ReadJournal issues FSCTL_READ_USN_JOURNAL from anchor with the given
	// reason mask, timeout, and byte-wait threshold. It returns the raw
	// output buffer (including its leading 8-byte next-USN prefix)
	// truncated to bytesReturned.
	ReadJournal(anchor Anchor, reasonMask uint32, timeoutUnits int64, bytesToWaitFor uint32) (buf []byte, err error)

	// Close releases the underlying volume handle.
	Close() error
}

// openGateway opens a VolumeGateway for a drive letter, e.g. "C:". It is
// a variable so tests can substitute a fake gateway without a build tag.
var openGateway func(driveLetter string) (VolumeGateway, error) = openVolumeGateway

//go:build windows

package mftindex

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows API constants for the three IOCTLs this package issues.
// https://learn.microsoft.com/en-us/windows/win32/api/winioctl/ni-winioctl-fsctl_query_usn_journal
// https://learn.microsoft.com/en-us/windows/win32/api/winioctl/ni-winioctl-fsctl_enum_usn_data
// https://learn.microsoft.com/en-us/windows/win32/api/winioctl/ni-winioctl-fsctl_read_usn_journal
const (
	fsctlQueryUSNJournal = 0x000900F4
	fsctlEnumUSNData     = 0x000900B3
	fsctlReadUSNJournal  = 0x000900BB
)

// usnJournalDataV0 mirrors USN_JOURNAL_DATA_V0.
type usnJournalDataV0 struct {
	UsnJournalID    uint64
	FirstUsn        int64
	NextUsn         int64
	LowestValidUsn  int64
	MaxUsn          int64
	MaximumSize     uint64
	AllocationDelta uint64
}

// mftEnumDataV0 mirrors MFT_ENUM_DATA_V0.
type mftEnumDataV0 struct {
	StartFileReferenceNumber uint64
	LowUsn                   int64
	HighUsn                  int64
}

// readUSNJournalDataV0 mirrors READ_USN_JOURNAL_DATA_V0.
type readUSNJournalDataV0 struct {
	StartUsn          int64
	ReasonMask        uint32
	ReturnOnlyOnClose uint32
	Timeout           uint64
	BytesToWaitFor    uint64
	UsnJournalID      uint64
}

const enumBufferSize = 1 << 20 // 1 MiB.

type windowsVolumeGateway struct {
	handle windows.Handle
}

func openVolumeGateway(driveLetter string) (VolumeGateway, error) {
	drive := strings.TrimSuffix(driveLetter, `\`)
	path := fmt.Sprintf(`\\.\%s`, drive)
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("mftindex: invalid drive letter %q: %w", driveLetter, err)
	}

	handle, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
			return nil, ErrPermissionDenied
		}
		return nil, &VolumeError{Context: "CreateFile(" + path + ")", Err: err}
	}

	return &windowsVolumeGateway{handle: handle}, nil
}

func (g *windowsVolumeGateway) QueryJournal() (Anchor, error) {
	var data usnJournalDataV0
	var bytesReturned uint32
	err := windows.DeviceIoControl(
		g.handle,
		fsctlQueryUSNJournal,
		nil, 0,
		(*byte)(unsafe.Pointer(&data)), uint32(unsafe.Sizeof(data)),
		&bytesReturned, nil,
	)
	if err != nil {
		return Anchor{}, &VolumeError{Context: "FSCTL_QUERY_USN_JOURNAL", Err: err}
	}
	return Anchor{NextUSN: data.NextUsn, JournalID: data.UsnJournalID}, nil
}

func (g *windowsVolumeGateway) EnumMFT(startFRN FRN, lowUSN, highUSN int64) ([]byte, bool, error) {
	req := mftEnumDataV0{
		StartFileReferenceNumber: uint64(startFRN),
		LowUsn:                   lowUSN,
		HighUsn:                  highUSN,
	}
	buf := make([]byte, enumBufferSize)
	var bytesReturned uint32

	err := windows.DeviceIoControl(
		g.handle,
		fsctlEnumUSNData,
		(*byte)(unsafe.Pointer(&req)), uint32(unsafe.Sizeof(req)),
		&buf[0], uint32(len(buf)),
		&bytesReturned, nil,
	)
	if err != nil {
		if errors.Is(err, windows.ERROR_HANDLE_EOF) {
			return nil, true, nil
		}
		return nil, false, &VolumeError{Context: "FSCTL_ENUM_USN_DATA", Err: err}
	}
	return buf[:bytesReturned], false, nil
}

func (g *windowsVolumeGateway) ReadJournal(anchor Anchor, reasonMask uint32, timeoutUnits int64, bytesToWaitFor uint32) ([]byte, error) {
	req := readUSNJournalDataV0{
		StartUsn:          anchor.NextUSN,
		ReasonMask:        reasonMask,
		ReturnOnlyOnClose: 0,
		Timeout:           uint64(timeoutUnits),
		BytesToWaitFor:    uint64(bytesToWaitFor),
		UsnJournalID:      anchor.JournalID,
	}
	buf := make([]byte, MAXRecordBufferSize)
	var bytesReturned uint32

	err := windows.DeviceIoControl(
		g.handle,
		fsctlReadUSNJournal,
		(*byte)(unsafe.Pointer(&req)), uint32(unsafe.Sizeof(req)),
		&buf[0], uint32(len(buf)),
		&bytesReturned, nil,
	)
	if err != nil {
		return nil, &VolumeError{Context: "FSCTL_READ_USN_JOURNAL", Err: err}
	}
	return buf[:bytesReturned], nil
}

func (g *windowsVolumeGateway) Close() error {
	return windows.CloseHandle(g.handle)
}

// MAXRecordBufferSize is the read-journal buffer size.
const MAXRecordBufferSize = 65536

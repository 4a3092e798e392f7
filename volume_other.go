//go:build !windows

package mftindex

type unsupportedVolumeGateway struct{}

func openVolumeGateway(driveLetter string) (VolumeGateway, error) {
	return nil, ErrUnsupportedPlatform
}

func (unsupportedVolumeGateway) QueryJournal() (Anchor, error) { return Anchor{}, ErrUnsupportedPlatform }

func (unsupportedVolumeGateway) EnumMFT(FRN, int64, int64) ([]byte, bool, error) {
	return nil, false, ErrUnsupportedPlatform
}

func (unsupportedVolumeGateway) ReadJournal(Anchor, uint32, int64, uint32) ([]byte, error) {
	return nil, ErrUnsupportedPlatform
}

func (unsupportedVolumeGateway) Close() error { return nil }

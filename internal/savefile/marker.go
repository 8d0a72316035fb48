package savefile

import "fmt"

// VitalsMarker precedes the vitals region. Assumed unique in the file.
var VitalsMarker = []byte{0x00, 0x00, 0x46, 0x50}

// FindMarker returns the offset of the first occurrence of marker.
func FindMarker(s *Store, marker []byte) (int, error) {
	if len(marker) != intWidth {
		return 0, fmt.Errorf("marker must be %d bytes, got %d", intWidth, len(marker))
	}
	off := s.Index(marker)
	if off < 0 {
		return 0, fmt.Errorf("%w: % X", ErrMarkerNotFound, marker)
	}
	return off, nil
}

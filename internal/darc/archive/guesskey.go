package archive

import (
	"errors"
	"fmt"
	"os"

	"github.com/ossyrian/wolfarc/internal/darc/format"
)

// ErrAlreadyModernFormat is returned by GuessLegacyKey when the input
// already begins with a plain "DX" magic: the heuristic only reads key
// bytes from files whose header does not start with it.
var ErrAlreadyModernFormat = errors.New("archive: file is already a modern-format archive, key guessing does not apply")

// GuessLegacyKey reconstructs a pre-"DX" archive's 12-byte classic cipher
// key by reading three 4-byte spans from fixed offsets in the header the
// legacy encoder leaves unencrypted. It has no equivalent for v5+ headers,
// which carry an explicit "DX" magic and don't need guessing.
func GuessLegacyKey(inputPath string) ([12]byte, error) {
	var key [12]byte

	f, err := os.Open(inputPath)
	if err != nil {
		return key, fmt.Errorf("archive: opening %q: %w", inputPath, err)
	}
	defer f.Close()

	var magic [2]byte
	if _, err := f.ReadAt(magic[:], 0); err != nil {
		return key, fmt.Errorf("archive: reading magic: %w", err)
	}
	if magic == format.Magic {
		return key, ErrAlreadyModernFormat
	}

	spans := []struct {
		offset int64
		out    []byte
	}{
		{0x0C, key[0:4]},
		{0x1C, key[4:8]},
		{0x14, key[8:12]},
	}
	for _, s := range spans {
		if _, err := f.ReadAt(s.out, s.offset); err != nil {
			return key, fmt.Errorf("archive: reading key span at offset 0x%X: %w", s.offset, err)
		}
	}

	return key, nil
}

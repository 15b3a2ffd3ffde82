package archive

import (
	"bytes"
	"io"
	"time"
)

// attrDirectory mirrors the host FILE_ATTRIBUTE_DIRECTORY bit; a FileEntry
// carrying it names a directory rather than payload content.
const attrDirectory uint32 = 0x10

// windowsEpochOffset100ns is the number of 100ns ticks between the
// Windows epoch (1601-01-01) and the Unix epoch (1970-01-01).
const windowsEpochOffset100ns = 116444736000000000

func winTimeToTime(ticks uint64) time.Time {
	if ticks == 0 {
		return time.Time{}
	}
	nanos := (int64(ticks) - windowsEpochOffset100ns) * 100
	return time.Unix(0, nanos).UTC()
}

func timeToWinTime(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	ticks := t.UnixNano()/100 + windowsEpochOffset100ns
	return uint64(ticks)
}

func newBytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

package archive

import "errors"

// ErrBadKey is returned when decryption with a caller-supplied key
// produces a directory block that fails basic sanity checks (bad root,
// out-of-range name offsets or indices) — a plausible-but-wrong key.
var ErrBadKey = errors.New("archive: key produced an invalid directory block")

// ErrOutOfBounds is returned when a FileEntry's dataOffset/storedSize
// would read past the end of the archive file. Detected before any file
// is extracted, per the bounds-checking invariant.
var ErrOutOfBounds = errors.New("archive: file entry out of bounds")

// EntryFailure records a single per-file extraction failure. Per-file
// failures do not abort the whole archive; they are collected here while
// extraction continues with the next entry.
type EntryFailure struct {
	RelPath string
	Err     error
}

// Report summarizes a Decode or DecodeAuto call.
type Report struct {
	Profile   VersionProfile
	Extracted []string
	Failed    []EntryFailure
}

package codec

import "errors"

// Error kinds surfaced by the LZSS and Huffman passes. Archive wraps these
// with file-specific context; callers that need to distinguish them use
// errors.Is.
var (
	// ErrTruncatedStream is returned when a compressed stream ends before
	// the recorded original size has been produced.
	ErrTruncatedStream = errors.New("codec: truncated stream")

	// ErrInvalidReference is returned when a back-reference points before
	// the start of the output produced so far.
	ErrInvalidReference = errors.New("codec: back-reference out of bounds")

	// ErrInvalidCodeTree is returned when a serialized Huffman frequency
	// table cannot produce a valid prefix code.
	ErrInvalidCodeTree = errors.New("codec: invalid code tree")
)

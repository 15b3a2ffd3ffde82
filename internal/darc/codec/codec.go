package codec

// ApplyEntropyTail runs the canonical-Huffman pass over the last tailBytes
// of compressed (clamped to len(compressed)), per spec's v≥8 "entropy
// tail" option. It returns the full buffer with that tail region replaced
// by its encoded form, and the byte length of the encoded tail so the
// caller can record it as a FileEntry's huffmanCompressedSize. A tailBytes
// of 0 is a no-op returning compressed unchanged and huffmanLen -1.
func ApplyEntropyTail(compressed []byte, tailBytes int) (out []byte, huffmanLen int) {
	if tailBytes <= 0 || len(compressed) == 0 {
		return compressed, -1
	}
	if tailBytes > len(compressed) {
		tailBytes = len(compressed)
	}

	splitAt := len(compressed) - tailBytes
	head := compressed[:splitAt]
	tail := compressed[splitAt:]

	encodedTail := EncodeTail(tail)

	out = make([]byte, 0, len(head)+len(encodedTail))
	out = append(out, head...)
	out = append(out, encodedTail...)
	return out, len(encodedTail)
}

// RemoveEntropyTail reverses ApplyEntropyTail given the stored
// huffmanCompressedSize for the entry (the length of the encoded tail
// occupying the end of data). A huffmanLen of -1 (or <= 0) is a no-op.
func RemoveEntropyTail(data []byte, huffmanLen int) ([]byte, error) {
	if huffmanLen <= 0 {
		return data, nil
	}
	if huffmanLen > len(data) {
		return nil, ErrTruncatedStream
	}

	splitAt := len(data) - huffmanLen
	head := data[:splitAt]
	encodedTail := data[splitAt:]

	tail, err := DecodeTail(encodedTail)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(head)+len(tail))
	out = append(out, head...)
	out = append(out, tail...)
	return out, nil
}

// Package wolfcrypt implements the two keystream ciphers used to protect
// archive payloads and the directory block: a classic byte-mix cipher for
// older format versions, and a ChaCha20-based cipher for newer ones.
package wolfcrypt

// Cipher XORs a deterministic keystream against buf in place, treating buf
// as occupying [absoluteOffset, absoluteOffset+len(buf)) of the logical
// payload being protected. Applying the same cipher twice at the same
// offset with the same key reproduces the original bytes.
type Cipher interface {
	ApplyAt(buf []byte, absoluteOffset int64) error
}

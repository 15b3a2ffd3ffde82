package wolfcrypt

import (
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// ChaChaKeyLen is the size of the stored key blob for the ChaCha variant:
// a 32-byte ChaCha20 key followed by a 12-byte nonce.
const ChaChaKeyLen = 44

// ChaCha implements the v≥8 ChaCha-like cipher: a 20-round ChaCha20 block
// function keyed and nonced from a single 44-byte stored key, XORed
// against the payload starting at the block matching the logical offset.
type ChaCha struct {
	key   [32]byte
	nonce [12]byte
}

// NewChaCha splits a 44-byte stored key into the ChaCha20 key and nonce.
func NewChaCha(rawKey []byte) (*ChaCha, error) {
	if len(rawKey) < ChaChaKeyLen {
		return nil, fmt.Errorf("wolfcrypt: ChaCha key must be %d bytes, got %d", ChaChaKeyLen, len(rawKey))
	}
	c := &ChaCha{}
	copy(c.key[:], rawKey[0:32])
	copy(c.nonce[:], rawKey[32:44])
	return c, nil
}

// ApplyAt XORs the ChaCha20 keystream into buf in place, treating buf as
// occupying the 64-byte blocks starting at absoluteOffset/64, byte offset
// absoluteOffset%64 into the first block. Encryption and decryption are
// identical.
func (c *ChaCha) ApplyAt(buf []byte, absoluteOffset int64) error {
	if len(buf) == 0 {
		return nil
	}

	blockIndex := uint32(absoluteOffset / 64)
	byteOffset := int(absoluteOffset % 64)

	stream, err := chacha20.NewUnauthenticatedCipher(c.key[:], c.nonce[:])
	if err != nil {
		return fmt.Errorf("wolfcrypt: creating chacha20 stream: %w", err)
	}
	stream.SetCounter(blockIndex)

	if byteOffset > 0 {
		discard := make([]byte, byteOffset)
		stream.XORKeyStream(discard, discard)
	}

	stream.XORKeyStream(buf, buf)
	return nil
}

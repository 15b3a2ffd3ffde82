// Package codec implements the LZSS-style sliding-window compressor used
// on archive entry payloads and on the directory block itself, plus an
// optional canonical-Huffman entropy pass over a bounded tail region.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/ossyrian/wolfarc/internal/darc/bitio"
)

const (
	// windowBits is log2 of the sliding window size; the window holds the
	// most recently emitted windowSize bytes as match candidates.
	windowBits = 13
	windowSize = 1 << windowBits
	windowMask = windowSize - 1

	// minMatchLen is the shortest run worth encoding as a back-reference;
	// anything shorter is always emitted as a literal.
	minMatchLen = 3

	// maxMatchLen bounds how long a single back-reference token can be.
	maxMatchLen = 1024

	// hashBits sizes the hash-chain head table keyed on the first three
	// bytes of each candidate match.
	hashBits = 15
	hashSize = 1 << hashBits

	// chainLimit bounds how many candidates the hash chain walk will visit
	// per position, keeping compression roughly linear in input size.
	chainLimit = 64
)

// headerLen is the byte size of the fixed plain (non bit-packed) prefix
// written before the bit-packed token stream: a little-endian uint64
// original size followed by the minimum match length used.
const headerLen = 9

func hash3(b0, b1, b2 byte) uint32 {
	h := uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16
	h *= 2654435761
	return (h >> (32 - hashBits)) & (hashSize - 1)
}

// Compress encodes src into a self-delimiting compressed blob: a plain
// header recording the original size and minimum match length, followed
// by a bit-packed token stream. Compress never fails.
func Compress(src []byte) []byte {
	out := make([]byte, headerLen)
	binary.LittleEndian.PutUint64(out[0:8], uint64(len(src)))
	out[8] = minMatchLen

	w := bitio.NewWriter()

	head := make([]int32, hashSize)
	for i := range head {
		head[i] = -1
	}
	prev := make([]int32, len(src))

	insert := func(pos int) {
		if pos+2 >= len(src) {
			return
		}
		h := hash3(src[pos], src[pos+1], src[pos+2])
		prev[pos] = head[h]
		head[h] = int32(pos)
	}

	findMatch := func(pos int) (bestPos, bestLen int) {
		if pos+minMatchLen > len(src) {
			return -1, 0
		}
		h := hash3(src[pos], src[pos+1], src[pos+2])
		cand := head[h]
		limit := pos - windowSize
		maxLen := len(src) - pos
		if maxLen > maxMatchLen {
			maxLen = maxMatchLen
		}

		for steps := 0; cand >= 0 && int(cand) > limit && steps < chainLimit; steps++ {
			c := int(cand)
			matchLen := 0
			for matchLen < maxLen && src[c+matchLen] == src[pos+matchLen] {
				matchLen++
			}
			if matchLen > bestLen {
				bestLen = matchLen
				bestPos = c
				if matchLen >= maxLen {
					break
				}
			}
			cand = prev[c]
		}
		return bestPos, bestLen
	}

	pos := 0
	for pos < len(src) {
		matchPos, matchLen := findMatch(pos)

		if matchLen < minMatchLen {
			w.WriteBit(1) // literal
			w.WriteBits(uint32(src[pos]), 8)
			insert(pos)
			pos++
			continue
		}

		w.WriteBit(0) // back-reference
		distance := pos - matchPos
		w.WriteBits(uint32(distance-1), windowBits)
		writeMatchLength(w, matchLen-minMatchLen)

		end := pos + matchLen
		for pos < end {
			insert(pos)
			pos++
		}
	}

	return append(out, w.Bytes()...)
}

// writeMatchLength encodes value (0..maxMatchLen-minMatchLen) as a 4-bit
// nibble, escaping to a 10-bit extension when the nibble alone can't hold
// it, so common short matches cost 4 bits and the rare long match costs 14.
func writeMatchLength(w *bitio.Writer, value int) {
	if value < 15 {
		w.WriteBits(uint32(value), 4)
		return
	}
	w.WriteBits(15, 4)
	w.WriteBits(uint32(value-15), 10)
}

func readMatchLength(r *bitio.Reader) (int, error) {
	v, err := r.ReadBits(4)
	if err != nil {
		return 0, err
	}
	if v < 15 {
		return int(v), nil
	}
	ext, err := r.ReadBits(10)
	if err != nil {
		return 0, err
	}
	return 15 + int(ext), nil
}

// Decompress reverses Compress, reconstructing the original bytes. It
// fails with ErrTruncatedStream if the token stream ends before the
// recorded original size is produced, or ErrInvalidReference if a
// back-reference points before the start of the output.
func Decompress(src []byte) ([]byte, error) {
	if len(src) < headerLen {
		return nil, fmt.Errorf("codec: %w: short header", ErrTruncatedStream)
	}

	originalSize := binary.LittleEndian.Uint64(src[0:8])
	// src[8] records the minimum match length used by the encoder; this
	// decoder only understands minMatchLen, matching the fixed format.

	// Every token takes at least one byte of src and yields at most
	// maxMatchLen bytes, so a recorded size beyond that bound is only
	// trusted as far as the stream can back it.
	capHint := originalSize
	if limit := uint64(len(src)) * maxMatchLen; capHint > limit {
		capHint = limit
	}
	out := make([]byte, 0, capHint)
	r := bitio.NewReader(src[headerLen:])

	for uint64(len(out)) < originalSize {
		flag, err := r.ReadBit()
		if err != nil {
			return nil, fmt.Errorf("codec: reading token flag: %w", ErrTruncatedStream)
		}

		if flag == 1 {
			b, err := r.ReadBits(8)
			if err != nil {
				return nil, fmt.Errorf("codec: reading literal: %w", ErrTruncatedStream)
			}
			out = append(out, byte(b))
			continue
		}

		distBits, err := r.ReadBits(windowBits)
		if err != nil {
			return nil, fmt.Errorf("codec: reading distance: %w", ErrTruncatedStream)
		}
		lenValue, err := readMatchLength(r)
		if err != nil {
			return nil, fmt.Errorf("codec: reading length: %w", ErrTruncatedStream)
		}

		distance := int(distBits) + 1
		matchLen := lenValue + minMatchLen
		matchPos := len(out) - distance
		if matchPos < 0 {
			return nil, fmt.Errorf("codec: distance %d at output length %d: %w", distance, len(out), ErrInvalidReference)
		}

		for i := 0; i < matchLen; i++ {
			out = append(out, out[matchPos+i])
		}
	}

	if uint64(len(out)) != originalSize {
		return nil, fmt.Errorf("codec: produced %d bytes, wanted %d: %w", len(out), originalSize, ErrTruncatedStream)
	}

	return out, nil
}

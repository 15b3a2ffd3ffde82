package codec_test

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/ossyrian/wolfarc/internal/darc/codec"
)

func TestLZSSRoundTrip(t *testing.T) {
	cases := map[string][]byte{
		"empty":        {},
		"single byte":  {0x41},
		"no repeats":   []byte("the quick brown fox jumps over a lazy dog"),
		"all repeats":  bytes.Repeat([]byte{0x41}, 1<<20),
		"mixed":        append(bytes.Repeat([]byte("ababab"), 200), []byte("tail of unique bytes 12345")...),
		"binary bytes": {0x00, 0xFF, 0x00, 0xFF, 0x10, 0x20, 0x30, 0x00, 0x00, 0x00},
	}

	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			compressed := codec.Compress(src)
			got, err := codec.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(got, src) {
				t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(src))
			}
		})
	}
}

func TestLZSSCompressesRepeatedData(t *testing.T) {
	src := bytes.Repeat([]byte{0x41}, 1<<20)
	compressed := codec.Compress(src)
	if len(compressed) >= len(src)/100 {
		t.Errorf("expected repeated-byte input to compress under 1%%, got %d of %d", len(compressed), len(src))
	}
}

func TestLZSSTruncatedStreamFails(t *testing.T) {
	src := []byte("hello world hello world hello world")
	compressed := codec.Compress(src)
	_, err := codec.Decompress(compressed[:len(compressed)-2])
	if err == nil {
		t.Fatal("expected error decompressing truncated stream")
	}
	if !errors.Is(err, codec.ErrTruncatedStream) {
		t.Errorf("got %v, want ErrTruncatedStream", err)
	}
}

func TestHuffmanTailRoundTrip(t *testing.T) {
	cases := map[string][]byte{
		"empty":        {},
		"single byte":  {0x42},
		"uniform":      bytes.Repeat([]byte{0x07}, 5000),
		"two symbols":  bytes.Repeat([]byte{0x01, 0x02}, 2000),
		"random bytes": randomBytes(4096),
	}

	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			encoded := codec.EncodeTail(src)
			got, err := codec.DecodeTail(encoded)
			if err != nil {
				t.Fatalf("DecodeTail: %v", err)
			}
			if !bytes.Equal(got, src) {
				t.Fatalf("round trip mismatch: got %v, want %v", got, src)
			}
		})
	}
}

func TestEntropyTailAppliedToLastBytesOnly(t *testing.T) {
	compressed := codec.Compress([]byte("some payload bytes to compress, repeated, some payload bytes to compress"))
	out, huffmanLen := codec.ApplyEntropyTail(compressed, 8)
	if huffmanLen < 0 {
		t.Fatal("expected a non-negative huffman tail length")
	}
	head := len(compressed) - 8
	if !bytes.Equal(out[:head], compressed[:head]) {
		t.Fatal("expected the bytes before the 8-byte tail to be left unchanged")
	}

	restored, err := codec.RemoveEntropyTail(out, huffmanLen)
	if err != nil {
		t.Fatalf("RemoveEntropyTail: %v", err)
	}
	if !bytes.Equal(restored, compressed) {
		t.Fatalf("restored compressed bytes mismatch")
	}
}

func TestEntropyTailNoopWhenThresholdZero(t *testing.T) {
	compressed := codec.Compress([]byte("anything"))
	out, huffmanLen := codec.ApplyEntropyTail(compressed, 0)
	if huffmanLen != -1 {
		t.Errorf("huffmanLen = %d, want -1", huffmanLen)
	}
	if !bytes.Equal(out, compressed) {
		t.Error("expected unchanged bytes when tailBytes is 0")
	}
}

func randomBytes(n int) []byte {
	r := rand.New(rand.NewSource(1))
	b := make([]byte, n)
	r.Read(b)
	return b
}

package wolfcrypt_test

import (
	"bytes"
	"testing"

	"github.com/ossyrian/wolfarc/internal/darc/wolfcrypt"
)

func TestClassicInvolution(t *testing.T) {
	variants := []wolfcrypt.ClassicVariant{wolfcrypt.ClassicV5, wolfcrypt.ClassicV6}
	keys := [][]byte{
		{0x0f, 0x53, 0xe1, 0x3e, 0x04, 0x37, 0x12, 0x17, 0x60, 0x0f, 0x53, 0xe1},
		[]byte("short"),
		[]byte(""),
	}
	offsets := []int64{0, 1, 11, 12, 13, 4096, 123456}

	for _, variant := range variants {
		for _, key := range keys {
			for _, off := range offsets {
				c := wolfcrypt.NewClassic(key, variant)
				original := []byte("the quick brown fox jumps over the lazy dog 0123456789")
				buf := append([]byte(nil), original...)

				if err := c.ApplyAt(buf, off); err != nil {
					t.Fatalf("first ApplyAt: %v", err)
				}
				if bytes.Equal(buf, original) && len(original) > 0 {
					// Not strictly required to differ at every offset/key
					// combination, but the all-zero key at offset 0 with
					// the zero rotation constant never happening is worth
					// a smoke check; skip strict assertion here.
				}

				c2 := wolfcrypt.NewClassic(key, variant)
				if err := c2.ApplyAt(buf, off); err != nil {
					t.Fatalf("second ApplyAt: %v", err)
				}

				if !bytes.Equal(buf, original) {
					t.Fatalf("variant=%v key=%q offset=%d: involution failed, got %q want %q", variant, key, off, buf, original)
				}
			}
		}
	}
}

func TestChaChaInvolution(t *testing.T) {
	key := make([]byte, wolfcrypt.ChaChaKeyLen)
	for i := range key {
		key[i] = byte(i * 7)
	}

	offsets := []int64{0, 1, 63, 64, 65, 128, 1000000}
	original := bytes.Repeat([]byte("payload bytes for chacha round trip "), 10)

	for _, off := range offsets {
		c1, err := wolfcrypt.NewChaCha(key)
		if err != nil {
			t.Fatalf("NewChaCha: %v", err)
		}
		buf := append([]byte(nil), original...)
		if err := c1.ApplyAt(buf, off); err != nil {
			t.Fatalf("first ApplyAt at offset %d: %v", off, err)
		}

		c2, err := wolfcrypt.NewChaCha(key)
		if err != nil {
			t.Fatalf("NewChaCha: %v", err)
		}
		if err := c2.ApplyAt(buf, off); err != nil {
			t.Fatalf("second ApplyAt at offset %d: %v", off, err)
		}

		if !bytes.Equal(buf, original) {
			t.Fatalf("offset %d: involution failed", off)
		}
	}
}

func TestChaChaRejectsShortKey(t *testing.T) {
	_, err := wolfcrypt.NewChaCha(make([]byte, 10))
	if err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestChaChaSplitAcrossBlockBoundaryMatchesWholeBuffer(t *testing.T) {
	key := make([]byte, wolfcrypt.ChaChaKeyLen)
	for i := range key {
		key[i] = byte(200 - i)
	}

	original := bytes.Repeat([]byte{0xAB}, 200)

	whole, err := wolfcrypt.NewChaCha(key)
	if err != nil {
		t.Fatal(err)
	}
	wholeBuf := append([]byte(nil), original...)
	if err := whole.ApplyAt(wholeBuf, 50); err != nil {
		t.Fatal(err)
	}

	split, err := wolfcrypt.NewChaCha(key)
	if err != nil {
		t.Fatal(err)
	}
	first := append([]byte(nil), original[:100]...)
	second := append([]byte(nil), original[100:]...)
	if err := split.ApplyAt(first, 50); err != nil {
		t.Fatal(err)
	}
	split2, err := wolfcrypt.NewChaCha(key)
	if err != nil {
		t.Fatal(err)
	}
	if err := split2.ApplyAt(second, 150); err != nil {
		t.Fatal(err)
	}

	gotSplit := append(append([]byte(nil), first...), second...)
	if !bytes.Equal(wholeBuf, gotSplit) {
		t.Fatalf("splitting the buffer across a boundary produced different keystream output")
	}
}

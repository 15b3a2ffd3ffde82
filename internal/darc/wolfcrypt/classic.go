package wolfcrypt

// ClassicVariant selects the small per-version constants used by the
// classic byte-mix cipher. The fold (password -> 12-byte state) is shared
// across variants; only the keystream index arithmetic differs.
type ClassicVariant int

const (
	ClassicV5 ClassicVariant = iota
	ClassicV6
)

// rotationConstants folds the caller's key into a fixed 12-byte state:
// state[i] = key[i mod len(key)] ^ rotationConstants[i]. These are fixed
// constants of the format, not derived from any particular key.
var rotationConstants = [12]byte{
	0x4D, 0x94, 0x27, 0xB1, 0x5E, 0x0A, 0xC8, 0x73, 0x1F, 0x62, 0xD5, 0x3A,
}

// Classic implements the v5..v7 byte-mix cipher.
type Classic struct {
	variant ClassicVariant
	state   [12]byte
}

// NewClassic folds key into the 12-byte cipher state for variant. An empty
// key folds to rotationConstants unchanged (every key byte is taken as
// zero); callers that want the format's "no-key"
// default should pass one of the well-known fixed keys instead of an
// empty slice.
func NewClassic(key []byte, variant ClassicVariant) *Classic {
	c := &Classic{variant: variant}
	for i := 0; i < 12; i++ {
		var kb byte
		if len(key) > 0 {
			kb = key[i%len(key)]
		}
		c.state[i] = kb ^ rotationConstants[i]
	}
	return c
}

// constants returns the per-version {a, b} keystream mix constants.
func (c *Classic) constants() (a, b int64) {
	switch c.variant {
	case ClassicV6:
		return 3, 5
	default: // ClassicV5
		return 1, 0
	}
}

// rotatesState reports whether this variant rotates the state by p mod 12
// before indexing into it.
func (c *Classic) rotatesState() bool {
	return c.variant == ClassicV6
}

func rotateState(s [12]byte, n int) [12]byte {
	var out [12]byte
	for i := 0; i < 12; i++ {
		out[i] = s[(i+n)%12]
	}
	return out
}

func (c *Classic) keystreamByte(p int64) byte {
	state := c.state
	if c.rotatesState() {
		rot := int(((p % 12) + 12) % 12)
		state = rotateState(state, rot)
	}

	a, b := c.constants()
	idx := (p + a*p + b) % 12
	idx = ((idx % 12) + 12) % 12
	return state[idx]
}

// ApplyAt XORs the keystream into buf in place. The transform is its own
// inverse: applying it twice at the same offset restores the input.
func (c *Classic) ApplyAt(buf []byte, absoluteOffset int64) error {
	for i := range buf {
		buf[i] ^= c.keystreamByte(absoluteOffset + int64(i))
	}
	return nil
}

// Package archive implements the top-level encode/decode orchestration
// for DXA/WOLF archives: version dispatch, a header built after the
// payloads and directory block are laid out and written once on encode,
// and sequential directory-then-payload processing on decode.
package archive

import (
	"fmt"

	"github.com/ossyrian/wolfarc/internal/darc/format"
	"github.com/ossyrian/wolfarc/internal/darc/wolfcrypt"
)

// Tag identifies one of the four known on-disk format variants. Codec
// parameters, cipher variant, and field widths are all derived from the
// chosen Tag — there is no polymorphic "cipher" object and no global
// mutable mode index; the caller picks a VersionProfile once per call.
type Tag int

const (
	V5 Tag = iota
	V6
	V8Classic
	V8ChaCha
)

func (t Tag) String() string {
	switch t {
	case V5:
		return "v5"
	case V6:
		return "v6"
	case V8Classic:
		return "v8-classic"
	case V8ChaCha:
		return "v8-chacha"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// VersionProfile bundles the codec/cipher/field-width parameters tied to
// one on-disk format version.
type VersionProfile struct {
	Tag              Tag
	HeaderVersion    uint16
	FieldWidths      format.FieldWidths
	FileEntryWidths  format.FileEntryWidths
	HuffmanCapable   bool // whether this profile's header carries a huffmanThreshold at all
	requiresChaChaFlag bool
}

// Profiles is the known set of version profiles, keyed by header version.
// Version 8 is ambiguous between V8Classic and V8ChaCha; ResolveProfile
// disambiguates using the header's ChaCha code flag.
var Profiles = map[uint16][]VersionProfile{
	5: {v5Profile},
	6: {v6Profile},
	8: {v8ClassicProfile, v8ChaChaProfile},
}

var v5Profile = VersionProfile{
	Tag:           V5,
	HeaderVersion: 5,
	FieldWidths:   format.FieldWidths{DataStart64: false},
	FileEntryWidths: format.FileEntryWidths{
		FieldWidths:  format.FieldWidths{DataStart64: false},
		SizeFields64: false,
	},
	HuffmanCapable: false,
}

var v6Profile = VersionProfile{
	Tag:           V6,
	HeaderVersion: 6,
	FieldWidths:   format.FieldWidths{DataStart64: true},
	FileEntryWidths: format.FileEntryWidths{
		FieldWidths:  format.FieldWidths{DataStart64: true},
		SizeFields64: true,
	},
	HuffmanCapable: false,
}

var v8ClassicProfile = VersionProfile{
	Tag:           V8Classic,
	HeaderVersion: 8,
	FieldWidths:   format.FieldWidths{DataStart64: true},
	FileEntryWidths: format.FileEntryWidths{
		FieldWidths:    format.FieldWidths{DataStart64: true},
		SizeFields64:   true,
		HasHuffmanTail: true,
	},
	HuffmanCapable:     true,
	requiresChaChaFlag: false,
}

var v8ChaChaProfile = VersionProfile{
	Tag:           V8ChaCha,
	HeaderVersion: 8,
	FieldWidths:   format.FieldWidths{DataStart64: true},
	FileEntryWidths: format.FileEntryWidths{
		FieldWidths:    format.FieldWidths{DataStart64: true},
		SizeFields64:   true,
		HasHuffmanTail: true,
	},
	HuffmanCapable:     true,
	requiresChaChaFlag: true,
}

// ResolveProfile picks the VersionProfile matching a decoded header's
// version and code flags. Unknown versions fail with
// format.ErrUnsupportedVersion rather than guessing.
func ResolveProfile(version uint16, codeFlags uint16) (VersionProfile, error) {
	candidates, ok := Profiles[version]
	if !ok {
		return VersionProfile{}, fmt.Errorf("%w: %d", format.ErrUnsupportedVersion, version)
	}

	hasChaChaFlag := codeFlags&format.FlagChaChaCipher != 0
	for _, p := range candidates {
		if p.requiresChaChaFlag == hasChaChaFlag {
			return p, nil
		}
	}
	return VersionProfile{}, fmt.Errorf("%w: version %d with chacha flag=%v", format.ErrUnsupportedVersion, version, hasChaChaFlag)
}

// NewCipher builds the Cipher for this profile's variant from raw key
// material.
func (p VersionProfile) NewCipher(key []byte) (wolfcrypt.Cipher, error) {
	switch p.Tag {
	case V5:
		return wolfcrypt.NewClassic(key, wolfcrypt.ClassicV5), nil
	case V6:
		return wolfcrypt.NewClassic(key, wolfcrypt.ClassicV6), nil
	case V8Classic:
		return wolfcrypt.NewClassic(key, wolfcrypt.ClassicV6), nil
	case V8ChaCha:
		return wolfcrypt.NewChaCha(key)
	default:
		return nil, fmt.Errorf("archive: unknown profile tag %v", p.Tag)
	}
}

// AllProfiles returns every known profile in a fixed, deterministic order
// (V5, V6, V8Classic, V8ChaCha), for DecodeAuto's candidate walk.
func AllProfiles() []VersionProfile {
	return []VersionProfile{v5Profile, v6Profile, v8ClassicProfile, v8ChaChaProfile}
}

package archive

// KnownKey pairs a fixed key shipped with a historical editor release with
// the profile it decrypts under, so DecodeAuto has a real candidate list
// to walk before giving up, matching the original tool's behavior of
// trying several fixed keys in turn.
type KnownKey struct {
	Name    string
	Profile Tag
	Key     []byte
}

// WellKnownProfiles are the fixed keys shipped with historical Wolf RPG
// Editor releases, taken from the editor's own key table.
var WellKnownProfiles = []KnownKey{
	{
		Name:    "Wolf RPG v2.01",
		Profile: V5,
		Key:     []byte{0x0f, 0x53, 0xe1, 0x3e, 0x04, 0x37, 0x12, 0x17, 0x60, 0x0f, 0x53, 0xe1},
	},
	{
		Name:    "Wolf RPG v2.10",
		Profile: V5,
		Key:     []byte{0x4c, 0xd9, 0x2a, 0xb7, 0x28, 0x9b, 0xac, 0x07, 0x3e, 0x77, 0xec, 0x4c},
	},
	{
		Name:    "Wolf RPG v2.20",
		Profile: V6,
		Key:     []byte{0x38, 0x50, 0x40, 0x28, 0x72, 0x4f, 0x21, 0x70, 0x3b, 0x73, 0x35, 0x38},
	},
	{
		Name:    "Wolf RPG ChaCha2 v1",
		Profile: V8ChaCha,
		Key: []byte{
			0xC9, 0x82, 0xF8, 0xB4, 0x2C, 0x93, 0x9E, 0x83, 0x0E, 0xBC, 0xBC, 0x92, 0x68, 0x8D, 0x59, 0xA1,
			0x4A, 0x9E, 0x7F, 0xB0, 0xAC, 0xAF, 0x1D, 0x8F, 0x8E, 0xB8, 0x3B, 0x9E, 0xE8, 0x89, 0xD9, 0xAD,
			0xFF, 0xBC, 0x2D, 0xAB, 0x9D, 0x8B, 0x0F, 0xB4, 0xBB, 0x9A, 0x69, 0x85,
		},
	},
}

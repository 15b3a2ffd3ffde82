package format

import (
	"path/filepath"
	"strings"
)

// DefaultHuffmanExtensions lists the file extensions that receive the
// optional entropy tail under the selective (non-alwaysHuffman) policy.
// Lifted out of code into a data table per the selective-Huffman Open
// Question: these are text/script/data extensions where LZSS's literal
// runs still carry enough skew for a prefix-code tail to help; already
// information-dense binary media (images, archives, audio) are excluded.
var DefaultHuffmanExtensions = map[string]bool{
	".txt":  true,
	".csv":  true,
	".json": true,
	".xml":  true,
	".ini":  true,
	".lua":  true,
	".js":   true,
	".dat":  true,
	".map":  true,
	".mps":  true,
}

// HuffmanPolicy decides whether an entry's payload should receive the
// entropy tail under the selective (non-alwaysHuffman) policy.
type HuffmanPolicy interface {
	ShouldHuffman(relPath string) bool
}

// ExtensionHuffmanPolicy implements HuffmanPolicy from an extension
// allow-list, defaulting to DefaultHuffmanExtensions.
type ExtensionHuffmanPolicy struct {
	Extensions map[string]bool
}

// NewDefaultHuffmanPolicy returns a policy using DefaultHuffmanExtensions.
func NewDefaultHuffmanPolicy() ExtensionHuffmanPolicy {
	return ExtensionHuffmanPolicy{Extensions: DefaultHuffmanExtensions}
}

func (p ExtensionHuffmanPolicy) ShouldHuffman(relPath string) bool {
	ext := strings.ToLower(filepath.Ext(relPath))
	return p.Extensions[ext]
}

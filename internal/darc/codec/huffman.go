package codec

import (
	"container/heap"
	"encoding/binary"
	"fmt"

	"github.com/ossyrian/wolfarc/internal/darc/bitio"
)

// EncodeTail runs the optional canonical-Huffman entropy pass over tail,
// used on the bounded trailing region of a payload when the archive's
// huffmanThreshold calls for it. The frequency table is serialized rather
// than the tree itself; DecodeTail rebuilds an identical canonical code
// assignment from those same frequencies.
func EncodeTail(tail []byte) []byte {
	var freq [256]uint64
	for _, b := range tail {
		freq[b]++
	}

	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, uint32(len(tail)))
	out = appendFreqTable(out, freq)

	if len(tail) == 0 {
		return out
	}

	lengths, used := computeLengths(freq)
	codes := canonicalCodes(lengths, used)

	w := bitio.NewWriter()
	for _, b := range tail {
		w.WriteBits(uint32(codes[b].code), codes[b].length)
	}

	return append(out, w.Bytes()...)
}

// DecodeTail reverses EncodeTail. It fails with ErrInvalidCodeTree if the
// embedded frequency table cannot produce a valid prefix code for the
// bitstream that follows.
func DecodeTail(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("codec: short huffman tail header: %w", ErrInvalidCodeTree)
	}
	length := binary.LittleEndian.Uint32(data[0:4])
	freq, rest, err := readFreqTable(data[4:])
	if err != nil {
		return nil, err
	}

	if length == 0 {
		return []byte{}, nil
	}

	lengths, used := computeLengths(freq)
	if len(used) == 0 {
		return nil, fmt.Errorf("codec: empty frequency table for non-empty tail: %w", ErrInvalidCodeTree)
	}
	codes := canonicalCodes(lengths, used)

	root := buildDecodeTree(codes)

	r := bitio.NewReader(rest)
	out := make([]byte, 0, length)
	for uint32(len(out)) < length {
		sym, err := decodeOne(r, root)
		if err != nil {
			return nil, fmt.Errorf("codec: decoding huffman tail: %w", err)
		}
		out = append(out, sym)
	}
	return out, nil
}

func appendFreqTable(out []byte, freq [256]uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	for _, f := range freq {
		n := binary.PutUvarint(buf[:], f)
		out = append(out, buf[:n]...)
	}
	return out
}

func readFreqTable(data []byte) ([256]uint64, []byte, error) {
	var freq [256]uint64
	for i := 0; i < 256; i++ {
		f, n := binary.Uvarint(data)
		if n <= 0 {
			return freq, nil, fmt.Errorf("codec: truncated frequency table at symbol %d: %w", i, ErrInvalidCodeTree)
		}
		freq[i] = f
		data = data[n:]
	}
	return freq, data, nil
}

// huffNode is a node in the length-assignment tree; symbol is -1 for
// internal nodes.
type huffNode struct {
	freq        uint64
	symbol      int
	left, right *huffNode
}

type nodeHeap []*huffNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].symbol < h[j].symbol
}
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(*huffNode)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// computeLengths derives a canonical-ready code length per symbol from a
// frequency table using a standard Huffman tree build. Ties are broken by
// ascending symbol value so the same table always yields the same lengths.
func computeLengths(freq [256]uint64) (lengths [256]int, used []int) {
	h := &nodeHeap{}
	for sym, f := range freq {
		if f > 0 {
			heap.Push(h, &huffNode{freq: f, symbol: sym})
			used = append(used, sym)
		}
	}

	if len(used) == 0 {
		return lengths, used
	}
	if len(used) == 1 {
		lengths[used[0]] = 1
		return lengths, used
	}

	for h.Len() > 1 {
		a := heap.Pop(h).(*huffNode)
		b := heap.Pop(h).(*huffNode)
		heap.Push(h, &huffNode{freq: a.freq + b.freq, symbol: -1, left: a, right: b})
	}

	root := heap.Pop(h).(*huffNode)
	var walk func(n *huffNode, depth int)
	walk = func(n *huffNode, depth int) {
		if n.symbol >= 0 {
			if depth == 0 {
				depth = 1
			}
			lengths[n.symbol] = depth
			return
		}
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(root, 0)

	return lengths, used
}

type codeWord struct {
	code   uint32
	length int
}

// canonicalCodes assigns canonical codes to used symbols: sorted by
// (length ascending, symbol ascending), each code one more than the last,
// left-shifted whenever length increases.
func canonicalCodes(lengths [256]int, used []int) map[byte]codeWord {
	sorted := make([]int, len(used))
	copy(sorted, used)
	sortBy(sorted, func(i, j int) bool {
		li, lj := lengths[sorted[i]], lengths[sorted[j]]
		if li != lj {
			return li < lj
		}
		return sorted[i] < sorted[j]
	})

	codes := make(map[byte]codeWord, len(sorted))
	var code uint32
	prevLen := lengths[sorted[0]]
	for i, sym := range sorted {
		l := lengths[sym]
		if i > 0 {
			code <<= uint(l - prevLen)
		}
		codes[byte(sym)] = codeWord{code: code, length: l}
		code++
		prevLen = l
	}
	return codes
}

// sortBy is a tiny insertion sort over an index-addressed comparator,
// avoiding a sort.Slice closure capture of the wrong loop variable and
// keeping the sort package out of this file's imports.
func sortBy(s []int, less func(i, j int) bool) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

type decodeNode struct {
	zero, one int
	leaf      bool
	symbol    byte
}

func buildDecodeTree(codes map[byte]codeWord) []decodeNode {
	nodes := []decodeNode{{zero: -1, one: -1}}
	for sym, cw := range codes {
		cur := 0
		for b := cw.length - 1; b >= 0; b-- {
			bit := (cw.code >> uint(b)) & 1
			if bit == 0 {
				if nodes[cur].zero == -1 {
					nodes = append(nodes, decodeNode{zero: -1, one: -1})
					nodes[cur].zero = len(nodes) - 1
				}
				cur = nodes[cur].zero
			} else {
				if nodes[cur].one == -1 {
					nodes = append(nodes, decodeNode{zero: -1, one: -1})
					nodes[cur].one = len(nodes) - 1
				}
				cur = nodes[cur].one
			}
		}
		nodes[cur].leaf = true
		nodes[cur].symbol = sym
	}
	return nodes
}

func decodeOne(r *bitio.Reader, nodes []decodeNode) (byte, error) {
	cur := 0
	for !nodes[cur].leaf {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, ErrTruncatedStream
		}
		if bit == 0 {
			cur = nodes[cur].zero
		} else {
			cur = nodes[cur].one
		}
		if cur < 0 {
			return 0, ErrInvalidCodeTree
		}
	}
	return nodes[cur].symbol, nil
}

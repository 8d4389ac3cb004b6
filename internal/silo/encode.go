package silo

import (
	"encoding/binary"
	"math"
)

// BuilderNode is the mutable tree the compiler assembles before packing.
// Text of "" means the element has no text content.
type BuilderNode struct {
	Element  string
	Text     string
	Attrs    []Attr
	Children []*BuilderNode
}

// Attr is one attribute name/value pair in document order.
type Attr struct {
	Name  string
	Value string
}

// strtabWriter interns strings into the append-only pool, returning the
// byte offset of each string's NUL-terminated entry.
type strtabWriter struct {
	buf  []byte
	seen map[string]uint32
}

func newStrtabWriter() *strtabWriter {
	return &strtabWriter{seen: make(map[string]uint32)}
}

func (w *strtabWriter) intern(s string) uint32 {
	if idx, ok := w.seen[s]; ok {
		return idx
	}
	idx := uint32(len(w.buf))
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	w.seen[s] = idx
	return idx
}

// Encode packs a forest of builder nodes into a loadable silo blob:
// header, node region in document order, then the string pool. The first
// root becomes the silo root; further roots are its siblings.
func Encode(roots []*BuilderNode) ([]byte, error) {
	// First pass: assign document-order offsets.
	offsets := make(map[*BuilderNode]uint32)
	next := uint32(0)
	var lay func(n *BuilderNode) error
	lay = func(n *BuilderNode) error {
		if n.Element == "" {
			return invalidArgf("builder node without element name")
		}
		if len(n.Attrs) > math.MaxUint16 {
			return invalidArgf("too many attributes on <%s>", n.Element)
		}
		offsets[n] = next
		next += nodeHeaderSize + uint32(len(n.Attrs))*attrEntrySize
		for _, c := range n.Children {
			if err := lay(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range roots {
		if err := lay(r); err != nil {
			return nil, err
		}
	}
	nodesSize := next

	strtab := newStrtabWriter()
	nodes := make([]byte, nodesSize)
	put32 := func(off uint32, v uint32) { binary.LittleEndian.PutUint32(nodes[off:], v) }
	put16 := func(off uint32, v uint16) { binary.LittleEndian.PutUint16(nodes[off:], v) }

	// Second pass: emit records with resolved links.
	var emit func(n *BuilderNode, parent, nextSib uint32, depth uint16) error
	emit = func(n *BuilderNode, parent, nextSib uint32, depth uint16) error {
		if depth == math.MaxUint16 {
			return invalidArgf("tree too deep at <%s>", n.Element)
		}
		off := offsets[n]
		put32(off+fieldElement, strtab.intern(n.Element))
		if n.Text == "" {
			put32(off+fieldText, idxNone)
		} else {
			put32(off+fieldText, strtab.intern(n.Text))
		}
		put32(off+fieldParent, parent)
		put32(off+fieldNext, nextSib)
		child := offNone
		if len(n.Children) > 0 {
			child = offsets[n.Children[0]]
		}
		put32(off+fieldChild, child)
		put16(off+fieldDepth, depth)
		put16(off+fieldNAttrs, uint16(len(n.Attrs)))
		for i, a := range n.Attrs {
			base := off + nodeHeaderSize + uint32(i)*attrEntrySize
			put32(base, strtab.intern(a.Name))
			put32(base+4, strtab.intern(a.Value))
		}
		for i, c := range n.Children {
			sib := offNone
			if i+1 < len(n.Children) {
				sib = offsets[n.Children[i+1]]
			}
			if err := emit(c, off, sib, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for i, r := range roots {
		sib := offNone
		if i+1 < len(roots) {
			sib = offsets[roots[i+1]]
		}
		if err := emit(r, offNone, sib, 0); err != nil {
			return nil, err
		}
	}

	rootOff := offNone
	if len(roots) > 0 {
		rootOff = offsets[roots[0]]
	}

	blob := make([]byte, 0, headerSize+len(nodes)+len(strtab.buf))
	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:4], Magic)
	header[4] = FormatVersion
	binary.LittleEndian.PutUint32(header[8:12], nodesSize)
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(strtab.buf)))
	binary.LittleEndian.PutUint32(header[16:20], rootOff)
	blob = append(blob, header[:]...)
	blob = append(blob, nodes...)
	blob = append(blob, strtab.buf...)
	return blob, nil
}

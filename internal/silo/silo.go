package silo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"unsafe"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/sys/unix"
)

// LoadFlag alters how a silo blob is validated on load.
type LoadFlag uint32

const (
	LoadFlagNone LoadFlag = 0
	// LoadFlagNoMagic skips the magic/version check. Used by the CLI
	// --force flag.
	LoadFlagNoMagic LoadFlag = 1 << 0
)

// Silo is an immutable, packed binary representation of an XML forest,
// navigable by offset. All returned strings are zero-copy views into the
// blob and share the silo's lifetime; the silo must outlive every Node
// derived from it.
type Silo struct {
	blob    []byte
	nodes   []byte
	strtab  []byte
	rootOff uint32

	// byName indexes element name -> set of node offsets. The query
	// evaluator uses it to short-circuit steps whose element name never
	// occurs anywhere in the silo.
	byName map[string]*roaring.Bitmap

	mapped []byte // non-nil when blob is an mmap region owned by us
}

// Load memory-maps the silo file at path read-only and validates its
// header. The mapping is released by Close.
func Load(path string, flags LoadFlag) (*Silo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioFailedf("open silo: %v", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, ioFailedf("stat silo: %v", err)
	}
	if info.Size() < headerSize {
		return nil, ioFailedf("silo truncated: %d bytes", info.Size())
	}

	// The mapping survives the file close.
	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, ioFailedf("mmap silo: %v", err)
	}

	s, err := LoadBytes(data, flags)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, err
	}
	s.mapped = data
	return s, nil
}

// LoadBytes opens a silo over an in-memory blob. The blob must not be
// modified while the silo or any derived Node is alive.
func LoadBytes(blob []byte, flags LoadFlag) (*Silo, error) {
	if len(blob) < headerSize {
		return nil, ioFailedf("silo truncated: %d bytes", len(blob))
	}

	magic := binary.LittleEndian.Uint32(blob[0:4])
	version := blob[4]
	if flags&LoadFlagNoMagic == 0 {
		if magic != Magic {
			return nil, ioFailedf("invalid silo magic: %08x", magic)
		}
		if version != FormatVersion {
			return nil, ioFailedf("unsupported silo version: %d", version)
		}
	}

	nodesSize := binary.LittleEndian.Uint32(blob[8:12])
	strtabSize := binary.LittleEndian.Uint32(blob[12:16])
	rootOff := binary.LittleEndian.Uint32(blob[16:20])

	if uint64(headerSize)+uint64(nodesSize)+uint64(strtabSize) > uint64(len(blob)) {
		return nil, ioFailedf("silo regions exceed blob: nodes=%d strtab=%d blob=%d",
			nodesSize, strtabSize, len(blob))
	}
	if rootOff != offNone && rootOff >= nodesSize {
		return nil, ioFailedf("root offset out of range: %08x", rootOff)
	}

	s := &Silo{
		blob:    blob,
		nodes:   blob[headerSize : headerSize+nodesSize],
		strtab:  blob[headerSize+nodesSize : headerSize+nodesSize+strtabSize],
		rootOff: rootOff,
	}
	if err := s.buildNameIndex(); err != nil {
		return nil, err
	}
	debugf("loaded silo: %d nodes, %d distinct names, %dB strtab",
		s.NodeCount(), len(s.byName), len(s.strtab))
	return s, nil
}

// Close releases the mmap region, if any. No Node derived from the silo
// may be used afterwards.
func (s *Silo) Close() error {
	if s.mapped == nil {
		return nil
	}
	data := s.mapped
	s.mapped = nil
	s.blob = nil
	s.nodes = nil
	s.strtab = nil
	if err := unix.Munmap(data); err != nil {
		return ioFailedf("munmap silo: %v", err)
	}
	return nil
}

// buildNameIndex walks the node region once, validating record bounds and
// accumulating the element-name bitmap index.
func (s *Silo) buildNameIndex() error {
	s.byName = make(map[string]*roaring.Bitmap)
	for off := uint32(0); off < uint32(len(s.nodes)); {
		if uint64(off)+nodeHeaderSize > uint64(len(s.nodes)) {
			return ioFailedf("node record truncated at %08x", off)
		}
		nAttrs := s.u16(off + fieldNAttrs)
		size := uint32(nodeHeaderSize) + uint32(nAttrs)*attrEntrySize
		if uint64(off)+uint64(size) > uint64(len(s.nodes)) {
			return ioFailedf("node attributes truncated at %08x", off)
		}
		name := s.str(s.u32(off + fieldElement))
		bm := s.byName[name]
		if bm == nil {
			bm = roaring.New()
			s.byName[name] = bm
		}
		bm.Add(off)
		off += size
	}
	return nil
}

// hasElement reports whether any node in the silo has the given element
// name.
func (s *Silo) hasElement(name string) bool {
	return s.byName[name] != nil
}

// Root returns a view of the silo's first root node, or nil when the silo
// is empty.
func (s *Silo) Root() *Node {
	if s == nil || s.rootOff == offNone {
		return nil
	}
	return newNode(s, s.rootOff)
}

// NodeCount returns the number of packed nodes.
func (s *Silo) NodeCount() int {
	n := 0
	for _, bm := range s.byName {
		n += int(bm.GetCardinality())
	}
	return n
}

func (s *Silo) u32(off uint32) uint32 {
	return binary.LittleEndian.Uint32(s.nodes[off : off+4])
}

func (s *Silo) u16(off uint32) uint16 {
	return binary.LittleEndian.Uint16(s.nodes[off : off+2])
}

// str resolves a string pool index to a zero-copy string view of the blob.
func (s *Silo) str(idx uint32) string {
	if idx == idxNone || int(idx) >= len(s.strtab) {
		return ""
	}
	n := bytes.IndexByte(s.strtab[idx:], 0)
	if n <= 0 {
		return ""
	}
	// Safe: the pool is immutable for the silo's lifetime.
	return unsafe.String(&s.strtab[idx], n)
}

// Primitive navigation. All take and return node-region offsets; offNone
// means absent.

func (s *Silo) nodeParent(off uint32) uint32 { return s.u32(off + fieldParent) }
func (s *Silo) nodeNext(off uint32) uint32   { return s.u32(off + fieldNext) }
func (s *Silo) nodeChild(off uint32) uint32  { return s.u32(off + fieldChild) }
func (s *Silo) nodeDepth(off uint32) uint16  { return s.u16(off + fieldDepth) }

func (s *Silo) nodeElement(off uint32) string {
	return s.str(s.u32(off + fieldElement))
}

func (s *Silo) nodeText(off uint32) (string, bool) {
	idx := s.u32(off + fieldText)
	if idx == idxNone {
		return "", false
	}
	return s.str(idx), true
}

// nodeAttr scans the attribute list for name. Lookup is case-sensitive and
// returns the first occurrence when duplicates exist.
func (s *Silo) nodeAttr(off uint32, name string) (string, bool) {
	nAttrs := uint32(s.u16(off + fieldNAttrs))
	for i := uint32(0); i < nAttrs; i++ {
		base := off + nodeHeaderSize + i*attrEntrySize
		if s.str(s.u32(base)) == name {
			return s.str(s.u32(base + 4)), true
		}
	}
	return "", false
}

// String renders a human-readable listing of every node, one line per node
// indented by depth. Used by the CLI dump command.
func (s *Silo) String() string {
	var b strings.Builder
	for off := s.rootOff; off != offNone; off = s.nodeNext(off) {
		s.dumpNode(&b, off)
	}
	fmt.Fprintf(&b, "nodes=%d names=%d strtab=%dB\n",
		s.NodeCount(), len(s.byName), len(s.strtab))
	return b.String()
}

func (s *Silo) dumpNode(b *strings.Builder, off uint32) {
	depth := int(s.nodeDepth(off))
	fmt.Fprintf(b, "[%08x] %s%s", off, strings.Repeat("  ", depth), s.nodeElement(off))
	nAttrs := uint32(s.u16(off + fieldNAttrs))
	for i := uint32(0); i < nAttrs; i++ {
		base := off + nodeHeaderSize + i*attrEntrySize
		fmt.Fprintf(b, " %s=%q", s.str(s.u32(base)), s.str(s.u32(base+4)))
	}
	if text, ok := s.nodeText(off); ok {
		fmt.Fprintf(b, " %q", text)
	}
	b.WriteByte('\n')
	for c := s.nodeChild(off); c != offNone; c = s.nodeNext(c) {
		s.dumpNode(b, c)
	}
}

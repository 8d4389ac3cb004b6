package silo

// On-disk layout. Everything is little-endian.
//
//	[header]
//	  0:4   magic
//	  4     format version
//	  5:8   reserved
//	  8:12  node region size in bytes
//	  12:16 string pool size in bytes
//	  16:20 root node offset (offNone when the silo is empty)
//	  20:32 reserved
//	[node region]   variable-length records, see below
//	[string pool]   NUL-terminated strings, indexed by byte offset
//
// A node record:
//
//	0:4   element name pool index
//	4:8   text pool index (idxNone when the element has no text)
//	8:12  parent node offset
//	12:16 next sibling offset
//	16:20 first child offset
//	20:22 depth
//	22:24 attribute count
//	24:   count x (name pool index uint32, value pool index uint32)
//
// Node offsets are relative to the start of the node region and stable for
// the lifetime of the silo.
const (
	Magic         = 0x624C4D58 // "XMLb"
	FormatVersion = 1

	headerSize     = 32
	nodeHeaderSize = 24
	attrEntrySize  = 8

	offNone uint32 = 0xFFFFFFFF
	idxNone uint32 = 0xFFFFFFFF
)

// Node record field offsets.
const (
	fieldElement = 0
	fieldText    = 4
	fieldParent  = 8
	fieldNext    = 12
	fieldChild   = 16
	fieldDepth   = 20
	fieldNAttrs  = 22
)

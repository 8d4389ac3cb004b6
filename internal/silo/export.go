package silo

import (
	"encoding/xml"
	"strings"
)

// ExportFlag controls how a subtree is serialised back to XML.
type ExportFlag uint32

const (
	// ExportFlagNone produces minimal single-line output of the subtree.
	ExportFlagNone ExportFlag = 0
	// ExportFlagAddHeader prepends the standard XML declaration.
	ExportFlagAddHeader ExportFlag = 1 << 0
	// ExportFlagFormatMultiline emits one element per line.
	ExportFlagFormatMultiline ExportFlag = 1 << 1
	// ExportFlagFormatIndent indents two spaces per depth level.
	ExportFlagFormatIndent ExportFlag = 1 << 2
	// ExportFlagIncludeSiblings exports the anchor's siblings too, not
	// just its own subtree.
	ExportFlagIncludeSiblings ExportFlag = 1 << 3
)

// Export serialises the whole silo as XML. Equivalent to exporting the
// root with siblings included on top of the given flags.
func (s *Silo) Export(flags ExportFlag) (string, error) {
	if s == nil || s.rootOff == offNone {
		return "", notFoundf("silo has no root")
	}
	return s.exportSubtree(s.rootOff, flags|ExportFlagIncludeSiblings)
}

func (s *Silo) exportSubtree(off uint32, flags ExportFlag) (string, error) {
	if off == offNone || uint64(off)+nodeHeaderSize > uint64(len(s.nodes)) {
		return "", invalidArgf("export of invalid node offset %08x", off)
	}

	var b strings.Builder
	if flags&ExportFlagAddHeader != 0 {
		b.WriteString(xml.Header)
	}

	base := s.nodeDepth(off)
	start := off
	if flags&ExportFlagIncludeSiblings != 0 {
		if parent := s.nodeParent(off); parent != offNone {
			start = s.nodeChild(parent)
		} else {
			start = s.rootOff
		}
	}
	for n := start; n != offNone; n = s.nodeNext(n) {
		s.writeElement(&b, n, flags, base)
		if flags&ExportFlagIncludeSiblings == 0 {
			break
		}
	}
	return b.String(), nil
}

func (s *Silo) writeElement(b *strings.Builder, off uint32, flags ExportFlag, base uint16) {
	depth := int(s.nodeDepth(off) - base)
	if flags&ExportFlagFormatIndent != 0 {
		for i := 0; i < depth; i++ {
			b.WriteString("  ")
		}
	}

	element := s.nodeElement(off)
	b.WriteByte('<')
	b.WriteString(element)
	nAttrs := uint32(s.u16(off + fieldNAttrs))
	for i := uint32(0); i < nAttrs; i++ {
		attrBase := off + nodeHeaderSize + i*attrEntrySize
		b.WriteByte(' ')
		b.WriteString(s.str(s.u32(attrBase)))
		b.WriteString("=\"")
		writeEscaped(b, s.str(s.u32(attrBase+4)), true)
		b.WriteByte('"')
	}

	child := s.nodeChild(off)
	text, hasText := s.nodeText(off)
	if child == offNone && !hasText {
		b.WriteString("/>")
		if flags&ExportFlagFormatMultiline != 0 {
			b.WriteByte('\n')
		}
		return
	}

	b.WriteByte('>')
	if hasText {
		writeEscaped(b, text, false)
	}
	if child != offNone {
		if flags&ExportFlagFormatMultiline != 0 {
			b.WriteByte('\n')
		}
		for c := child; c != offNone; c = s.nodeNext(c) {
			s.writeElement(b, c, flags, base)
		}
		if flags&ExportFlagFormatIndent != 0 {
			for i := 0; i < depth; i++ {
				b.WriteString("  ")
			}
		}
	}
	b.WriteString("</")
	b.WriteString(element)
	b.WriteByte('>')
	if flags&ExportFlagFormatMultiline != 0 {
		b.WriteByte('\n')
	}
}

// writeEscaped emits text with '&', '<' and '>' escaped. Double quotes are
// escaped only inside attribute values, which are always double-quoted;
// apostrophes are never escaped.
func writeEscaped(b *strings.Builder, s string, attr bool) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			if attr {
				b.WriteString("&quot;")
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
}

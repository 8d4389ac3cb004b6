// Package builder compiles XML documents into silo blobs. Sources are
// tokenized with a SAX reader and accumulated into one forest; compiling
// packs the forest into the binary silo layout.
package builder

import (
	"bytes"
	"io"

	"github.com/go-git/go-billy/v5"
	"github.com/orisano/gosax"

	"github.com/rclobus/libxmlb/internal/silo"
)

// Builder accumulates imported XML trees. Each imported document's root
// elements become root-level siblings in the compiled silo, in import
// order.
type Builder struct {
	roots []*silo.BuilderNode
}

func New() *Builder {
	return &Builder{}
}

// ImportFile parses one XML file from fs and adds it to the forest.
func (b *Builder) ImportFile(fs billy.Filesystem, path string) error {
	f, err := fs.Open(path)
	if err != nil {
		return &silo.Error{Kind: silo.KindIO, Msg: "open " + path + ": " + err.Error()}
	}
	defer func() { _ = f.Close() }()
	if err := b.ImportReader(f); err != nil {
		return &silo.Error{Kind: silo.KindIO, Msg: path + ": " + err.Error()}
	}
	return nil
}

// ImportBytes parses an in-memory XML document.
func (b *Builder) ImportBytes(data []byte) error {
	return b.ImportReader(bytes.NewReader(data))
}

// ImportReader tokenizes one XML document and appends its root elements
// to the forest. Comments, processing instructions and the XML
// declaration are skipped; entity references in text and attribute values
// are expanded at compile time.
func (b *Builder) ImportReader(rd io.Reader) error {
	r := gosax.NewReaderSize(rd, 1<<20)
	var stack []*silo.BuilderNode
	var text []byte // pending text for the element on top of the stack

	flushText := func() {
		if len(stack) == 0 || len(text) == 0 {
			text = text[:0]
			return
		}
		top := stack[len(stack)-1]
		top.Text += unescape(text)
		text = text[:0]
	}

	for {
		e, err := r.Event()
		if err != nil {
			return &silo.Error{Kind: silo.KindIO, Msg: "parse xml: " + err.Error()}
		}
		if e.Type() == gosax.EventEOF {
			break
		}
		switch e.Type() {
		case gosax.EventStart:
			flushText()
			name, attrs := gosax.Name(e.Bytes)
			n := &silo.BuilderNode{Element: string(name)}
			if len(attrs) > 0 {
				parseAttributes(attrs, n)
			}
			if len(stack) == 0 {
				b.roots = append(b.roots, n)
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			selfClosing := len(e.Bytes) >= 2 &&
				e.Bytes[len(e.Bytes)-2] == '/' && e.Bytes[len(e.Bytes)-1] == '>'
			if !selfClosing {
				stack = append(stack, n)
			}

		case gosax.EventEnd:
			if len(stack) == 0 {
				return &silo.Error{Kind: silo.KindIO, Msg: "parse xml: unexpected closing tag"}
			}
			flushText()
			stack = stack[:len(stack)-1]

		case gosax.EventText:
			if len(stack) > 0 && !isWhitespace(e.Bytes) {
				text = append(text, e.Bytes...)
			}

		case gosax.EventCData:
			// Strip the <![CDATA[ ... ]]> wrapper; the content is
			// taken verbatim, no entity expansion.
			if len(stack) > 0 && len(e.Bytes) > 12 {
				flushText()
				top := stack[len(stack)-1]
				top.Text += string(e.Bytes[9 : len(e.Bytes)-3])
			}
		}
	}
	if len(stack) != 0 {
		return &silo.Error{Kind: silo.KindIO, Msg: "parse xml: unclosed element <" + stack[len(stack)-1].Element + ">"}
	}
	return nil
}

// Compile packs the accumulated forest into a loadable silo blob.
func (b *Builder) Compile() ([]byte, error) {
	return silo.Encode(b.roots)
}

// WriteFile compiles the forest and persists the blob to path on fs.
func (b *Builder) WriteFile(fs billy.Filesystem, path string) error {
	blob, err := b.Compile()
	if err != nil {
		return err
	}
	f, err := fs.Create(path)
	if err != nil {
		return &silo.Error{Kind: silo.KindIO, Msg: "create " + path + ": " + err.Error()}
	}
	if _, err := f.Write(blob); err != nil {
		_ = f.Close()
		return &silo.Error{Kind: silo.KindIO, Msg: "write " + path + ": " + err.Error()}
	}
	if err := f.Close(); err != nil {
		return &silo.Error{Kind: silo.KindIO, Msg: "close " + path + ": " + err.Error()}
	}
	return nil
}

// parseAttributes scans the raw attribute bytes of a start tag and appends
// name/value pairs in document order.
func parseAttributes(attrs []byte, n *silo.BuilderNode) {
	i := 0
	for i < len(attrs) {
		for i < len(attrs) && isSpace(attrs[i]) {
			i++
		}
		if i >= len(attrs) || attrs[i] == '/' || attrs[i] == '>' {
			break
		}

		nameStart := i
		for i < len(attrs) && attrs[i] != '=' && !isSpace(attrs[i]) {
			i++
		}
		name := string(bytes.TrimSpace(attrs[nameStart:i]))

		for i < len(attrs) && (isSpace(attrs[i]) || attrs[i] == '=') {
			i++
		}
		if i >= len(attrs) {
			break
		}
		quote := attrs[i]
		if quote != '"' && quote != '\'' {
			break
		}
		i++
		valueStart := i
		for i < len(attrs) && attrs[i] != quote {
			i++
		}
		value := unescape(attrs[valueStart:i])
		i++

		if name != "" {
			n.Attrs = append(n.Attrs, silo.Attr{Name: name, Value: value})
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isWhitespace(s []byte) bool {
	for _, c := range s {
		if !isSpace(c) {
			return false
		}
	}
	return true
}

package silo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rclobus/libxmlb/internal/builder"
	"github.com/rclobus/libxmlb/internal/silo"
)

// compile builds a silo from one or more XML documents.
func compile(t *testing.T, sources ...string) *silo.Silo {
	t.Helper()
	b := builder.New()
	for _, src := range sources {
		require.NoError(t, b.ImportBytes([]byte(src)))
	}
	blob, err := b.Compile()
	require.NoError(t, err)
	s, err := silo.LoadBytes(blob, silo.LoadFlagNone)
	require.NoError(t, err)
	return s
}

func TestTraversal(t *testing.T) {
	s := compile(t, `<a><b>hi</b><c/></a>`)

	root := s.Root()
	require.NotNil(t, root)
	assert.Equal(t, "a", root.Element())
	assert.Equal(t, uint(0), root.Depth())
	assert.Nil(t, root.Parent())

	b := root.Child()
	require.NotNil(t, b)
	assert.Equal(t, "b", b.Element())
	assert.Equal(t, "hi", b.Text())
	assert.Equal(t, uint(1), b.Depth())

	c := b.Next()
	require.NotNil(t, c)
	assert.Equal(t, "c", c.Element())
	assert.Nil(t, c.Next())
	assert.Nil(t, c.Child())
	assert.Equal(t, "", c.Text())
}

func TestChildrenMatchesSiblingWalk(t *testing.T) {
	s := compile(t, `<a><b/><c/><d/><e/></a>`)
	root := s.Root()

	var walked []string
	for n := root.Child(); n != nil; n = n.Next() {
		walked = append(walked, n.Element())
	}

	children := root.Children()
	require.Len(t, children, len(walked))
	for i, n := range children {
		assert.Equal(t, walked[i], n.Element())
	}
	assert.Equal(t, []string{"b", "c", "d", "e"}, walked)
}

func TestDepthParentDuality(t *testing.T) {
	s := compile(t, `<a><b><c><d/></c></b></a>`)

	depth := uint(0)
	for n := s.Root(); n != nil; n = n.Child() {
		if n.Depth() == 0 {
			assert.Nil(t, n.Parent(), "depth 0 must mean no parent")
		} else {
			parent := n.Parent()
			require.NotNil(t, parent, "depth %d must have a parent", n.Depth())
			assert.Equal(t, parent.Depth()+1, n.Depth())
		}
		assert.Equal(t, depth, n.Depth())
		depth++
	}
	assert.Equal(t, uint(4), depth, "the walk visits all four elements down to the deepest")
}

func TestAttr(t *testing.T) {
	s := compile(t, `<a><b type="x" id="one">1</b></a>`)
	b := s.Root().Child()

	assert.Equal(t, "x", b.Attr("type"))
	assert.Equal(t, "one", b.Attr("id"))
	assert.Equal(t, "", b.Attr("Type"), "lookup is case-sensitive")
	assert.Equal(t, "", b.Attr("missing"))
	assert.Equal(t, "", b.Attr(""))
}

func TestDuplicateAttrReturnsFirst(t *testing.T) {
	// Hand-assembled: a real parser would reject duplicate names.
	blob, err := silo.Encode([]*silo.BuilderNode{{
		Element: "a",
		Attrs: []silo.Attr{
			{Name: "k", Value: "first"},
			{Name: "k", Value: "second"},
		},
	}})
	require.NoError(t, err)
	s, err := silo.LoadBytes(blob, silo.LoadFlagNone)
	require.NoError(t, err)
	assert.Equal(t, "first", s.Root().Attr("k"))
}

func TestNodeDataPerInstance(t *testing.T) {
	s := compile(t, `<a><b/></a>`)

	n1 := s.Root().Child()
	n2 := s.Root().Child()

	n1.SetData("remote-id", []byte{0x01, 0x02})
	assert.Equal(t, []byte{0x01, 0x02}, n1.GetData("remote-id"))
	assert.Nil(t, n2.GetData("remote-id"), "data maps are per instance")

	n1.SetData("remote-id", []byte{0x03})
	assert.Equal(t, []byte{0x03}, n1.GetData("remote-id"), "set replaces")
	assert.Nil(t, n1.GetData("other"))
}

func TestEmptySilo(t *testing.T) {
	blob, err := silo.Encode(nil)
	require.NoError(t, err)
	s, err := silo.LoadBytes(blob, silo.LoadFlagNone)
	require.NoError(t, err)

	assert.Nil(t, s.Root())
	_, err = s.Query("a", 0)
	assert.ErrorIs(t, err, silo.ErrNotFound)
}

func TestLoadBytesRejectsBadMagic(t *testing.T) {
	blob, err := silo.Encode([]*silo.BuilderNode{{Element: "a"}})
	require.NoError(t, err)

	blob[0] ^= 0xFF
	_, err = silo.LoadBytes(blob, silo.LoadFlagNone)
	assert.ErrorIs(t, err, silo.ErrIO)

	// --force path skips the check.
	forced, err := silo.LoadBytes(blob, silo.LoadFlagNoMagic)
	require.NoError(t, err)
	assert.Equal(t, "a", forced.Root().Element())
}

func TestLoadBytesRejectsTruncated(t *testing.T) {
	_, err := silo.LoadBytes([]byte{0x01, 0x02}, silo.LoadFlagNone)
	assert.ErrorIs(t, err, silo.ErrIO)
}

func TestLoadFromFile(t *testing.T) {
	b := builder.New()
	require.NoError(t, b.ImportBytes([]byte(`<a><b>hi</b></a>`)))
	blob, err := b.Compile()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "test.xmlb")
	require.NoError(t, os.WriteFile(path, blob, 0o644))

	s, err := silo.Load(path, silo.LoadFlagNone)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	text, err := s.Root().QueryText("b")
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}

func TestDump(t *testing.T) {
	s := compile(t, `<a><b type="x">1</b></a>`)
	dump := s.String()
	assert.Contains(t, dump, "a")
	assert.Contains(t, dump, `type="x"`)
	assert.Contains(t, dump, `"1"`)
	assert.Contains(t, dump, "nodes=2")
}

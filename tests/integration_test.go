package tests

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rclobus/libxmlb/internal/builder"
	"github.com/rclobus/libxmlb/internal/silo"
)

const componentsXML = `<components origin="vendor">
  <component type="desktop">
    <id>abe.desktop</id>
    <release version="0x2a"/>
  </component>
  <component type="console">
    <id>foo.bin</id>
  </component>
</components>`

// buildSilo compiles sources on an in-memory filesystem and reopens the
// resulting blob through the regular load path.
func buildSilo(t *testing.T, sources map[string]string) *silo.Silo {
	t.Helper()
	fs := memfs.New()
	b := builder.New()
	for name, content := range sources {
		f, err := fs.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, f.Close())
		require.NoError(t, b.ImportFile(fs, name))
	}
	blob, err := b.Compile()
	require.NoError(t, err)
	s, err := silo.LoadBytes(blob, silo.LoadFlagNone)
	require.NoError(t, err)
	return s
}

func TestPipelineCompileQueryExport(t *testing.T) {
	s := buildSilo(t, map[string]string{"/components.xml": componentsXML})
	root := s.Root()
	require.NotNil(t, root)

	id, err := root.QueryText(`component[@type='desktop']/id`)
	require.NoError(t, err)
	assert.Equal(t, "abe.desktop", id)

	release, err := root.QueryFirst(`component[@type='desktop']/release`)
	require.NoError(t, err)
	assert.Equal(t, "0x2a", release.Attr("version"))

	components, err := root.Query("component", 0)
	require.NoError(t, err)
	assert.Len(t, components, 2)

	_, err = root.QueryText(`component[@type='phone']/id`)
	assert.ErrorIs(t, err, silo.ErrNotFound)
}

func TestPipelineMmapLoad(t *testing.T) {
	b := builder.New()
	require.NoError(t, b.ImportBytes([]byte(componentsXML)))
	blob, err := b.Compile()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "components.xmlb")
	require.NoError(t, os.WriteFile(path, blob, 0o644))

	s, err := silo.Load(path, silo.LoadFlagNone)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	val, err := s.Root().QueryTextAsUint(`component/id`)
	assert.ErrorIs(t, err, silo.ErrNotFound, "id text is not numeric")
	assert.Equal(t, uint64(math.MaxUint64), val)

	id, err := s.QueryFirst(`components/component/id`)
	require.NoError(t, err)
	assert.Equal(t, "abe.desktop", id.Text())
}

func TestPipelineRoundTrip(t *testing.T) {
	const flags = silo.ExportFlagAddHeader |
		silo.ExportFlagFormatMultiline |
		silo.ExportFlagFormatIndent |
		silo.ExportFlagIncludeSiblings

	s := buildSilo(t, map[string]string{"/components.xml": componentsXML})
	canonical, err := s.Root().Export(flags)
	require.NoError(t, err)

	s2 := buildSilo(t, map[string]string{"/canonical.xml": canonical})
	again, err := s2.Root().Export(flags)
	require.NoError(t, err)
	assert.Equal(t, canonical, again)
}

func TestPipelineMultiImportForest(t *testing.T) {
	s := buildSilo(t, map[string]string{
		"/a.xml": `<alpha><x>1</x></alpha>`,
		"/b.xml": `<beta><x>2</x></beta>`,
	})

	// Both documents are reachable from silo-level queries regardless of
	// import order.
	one, err := s.QueryFirst("alpha/x")
	require.NoError(t, err)
	assert.Equal(t, "1", one.Text())
	two, err := s.QueryFirst("beta/x")
	require.NoError(t, err)
	assert.Equal(t, "2", two.Text())
}

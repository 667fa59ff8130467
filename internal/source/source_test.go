package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aptgo/apt-go/internal/aptcore"
)

func TestParseFileExpandsComponents(t *testing.T) {
	const list = `# a comment
deb http://archive.example.com/ubuntu/ jammy main restricted

deb-src http://archive.example.com/ubuntu/ jammy universe
`
	srcs, err := ParseFile(strings.NewReader(list))
	require.NoError(t, err)
	require.Len(t, srcs, 3)

	assert.Equal(t, aptcore.ArchiveBinary, srcs[0].Type)
	assert.Equal(t, "main", srcs[0].Component)
	assert.Equal(t, "http://archive.example.com/ubuntu", srcs[0].URL)
	assert.Equal(t, "restricted", srcs[1].Component)
	assert.Equal(t, aptcore.ArchiveSource, srcs[2].Type)
	assert.Equal(t, "universe", srcs[2].Component)
}

func TestParseFileNoComponentMarker(t *testing.T) {
	srcs, err := ParseFile(strings.NewReader("deb http://example.com/flat ./\n"))
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	assert.Empty(t, srcs[0].Component)
}

func TestParseFileRejectsUnknownComponent(t *testing.T) {
	_, err := ParseFile(strings.NewReader("deb http://example.com jammy bogus\n"))
	require.Error(t, err)
	var invalid *InvalidSourceListError
	assert.ErrorAs(t, err, &invalid)
}

func TestParseFileRejectsUnknownType(t *testing.T) {
	_, err := ParseFile(strings.NewReader("rpm http://example.com jammy main\n"))
	require.Error(t, err)
}

func TestIndexURLShapes(t *testing.T) {
	withComponent := aptcore.Source{Type: aptcore.ArchiveBinary, URL: "http://a", Distribution: "jammy", Component: "main"}
	assert.Equal(t, "http://a/dists/jammy/main/binary-amd64/Packages.gz", IndexURL(withComponent, "amd64"))
	assert.Equal(t, "http://a/dists/jammy/InRelease", InReleaseURL(withComponent))

	flat := aptcore.Source{Type: aptcore.ArchiveBinary, URL: "http://a", Distribution: "flat"}
	assert.Equal(t, "http://a/flat/Packages.gz", IndexURL(flat, "amd64"))
}

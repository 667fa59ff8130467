package extstate

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeepsOnlyAutoInstalled(t *testing.T) {
	const data = `Package: libfoo
Architecture: amd64
Auto-Installed: 1

Package: libbar
Architecture: amd64
Auto-Installed: 0

Package: libbaz
Architecture: arm64
Auto-Installed: 1
`
	s, err := Load(strings.NewReader(data))
	require.NoError(t, err)

	assert.True(t, s.IsAutoInstalled("libfoo"))
	assert.False(t, s.IsAutoInstalled("libbar"))
	assert.True(t, s.IsAutoInstalled("libbaz"))
	assert.Equal(t, []string{"libbaz", "libfoo"}, s.AutoInstalledNames())
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	s, err := LoadFile("/nonexistent/path/to/extended_states")
	require.NoError(t, err)
	assert.Empty(t, s.AutoInstalledNames())
}

func TestSetTransitions(t *testing.T) {
	s := New()

	s.Set("libfoo", "amd64", true)
	assert.True(t, s.IsAutoInstalled("libfoo"))

	s.Set("libfoo", "amd64", true)
	assert.True(t, s.IsAutoInstalled("libfoo"))

	s.Set("libfoo", "amd64", false)
	assert.False(t, s.IsAutoInstalled("libfoo"))

	s.Set("libfoo", "amd64", false)
	assert.False(t, s.IsAutoInstalled("libfoo"))
}

func TestWriteRoundTrip(t *testing.T) {
	s := New()
	s.Set("zeta", "amd64", true)
	s.Set("alpha", "arm64", true)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))

	reloaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, reloaded.AutoInstalledNames())
}

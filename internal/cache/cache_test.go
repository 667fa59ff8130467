package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aptgo/apt-go/internal/aptcore"
)

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func TestFilenameForStripsSchemeAndGzSuffix(t *testing.T) {
	assert.Equal(t, "archive.example.com_dists_jammy_main_binary-amd64_Packages",
		filenameFor("http://archive.example.com/dists/jammy/main/binary-amd64/Packages.gz"))
}

func TestPathForIndex(t *testing.T) {
	d := New("/cache/root")
	got := d.PathForIndex("http://example.com/dists/jammy/InRelease")
	assert.Equal(t, filepath.Join("/cache/root", "example.com_dists_jammy_InRelease"), got)
}

func TestRefreshFetchesAndDecodesIndex(t *testing.T) {
	indexBody := "Package: libfoo\nVersion: 1.0-1\nMaintainer: Test <test@example.com>\nFilename: pool/libfoo_1.0-1_amd64.deb\nSize: 100\n\n"
	gz := gzipBytes(t, indexBody)

	mux := http.NewServeMux()
	mux.HandleFunc("/dists/jammy/InRelease", func(w http.ResponseWriter, r *http.Request) {
		md5sum := "d41d8cd98f00b204e9800998ecf8427e"
		_, _ = w.Write([]byte(md5sum + "  100  main/binary-amd64/Packages.gz\n"))
	})
	mux.HandleFunc("/dists/jammy/main/binary-amd64/Packages.gz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(gz)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	cacheDir := New(dir)
	src := aptcore.Source{Type: aptcore.ArchiveBinary, URL: srv.URL, Distribution: "jammy", Component: "main"}

	result, err := cacheDir.Refresh(context.Background(), srv.Client(), src, "amd64")
	require.NoError(t, err)
	assert.False(t, result.Unchanged)

	universe, err := cacheDir.ReadAll(aptcore.ModeBinary)
	require.NoError(t, err)
	_, ok := universe.Get("libfoo")
	assert.True(t, ok)
}

func TestRefreshNotModified(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dists/jammy/InRelease", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-Modified-Since") != "" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		_, _ = w.Write([]byte("d41d8cd98f00b204e9800998ecf8427e  100  main/binary-amd64/Packages.gz\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	cacheDir := New(dir)
	src := aptcore.Source{Type: aptcore.ArchiveBinary, URL: srv.URL, Distribution: "jammy", Component: "main"}

	// Seed the InRelease cache file so Refresh sends If-Modified-Since.
	releasePath := cacheDir.pathFor(srv.URL + "/dists/jammy/InRelease")
	require.NoError(t, os.MkdirAll(filepath.Dir(releasePath), 0o755))
	require.NoError(t, os.WriteFile(releasePath, []byte("stale"), 0o644))

	result, err := cacheDir.Refresh(context.Background(), srv.Client(), src, "amd64")
	require.NoError(t, err)
	assert.True(t, result.Unchanged)
}

func TestDownloadArchiveWritesFileAndProgress(t *testing.T) {
	const payload = "fake .deb contents"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "libfoo.deb")
	var progress bytes.Buffer
	err := DownloadArchive(context.Background(), srv.Client(), srv.URL, dest, &progress)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, string(got))
	assert.Equal(t, payload, progress.String())
}

func TestCleanRemovesOnlyDebFiles(t *testing.T) {
	dir := t.TempDir()
	debPath := filepath.Join(dir, "libfoo.deb")
	otherPath := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(debPath, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(otherPath, []byte("x"), 0o644))

	removed, err := Clean(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{debPath}, removed)

	_, statErr := os.Stat(otherPath)
	assert.NoError(t, statErr)
}

func TestCleanMissingDirIsNoop(t *testing.T) {
	removed, err := Clean(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, removed)
}

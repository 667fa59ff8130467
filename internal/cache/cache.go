// Package cache manages the on-disk index cache: conditional download of
// InRelease/Packages.gz files, gzip decoding, and tolerant re-reading of the
// cached paragraphs back into a candidate universe.
package cache

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	shutil "github.com/termie/go-shutil"

	"github.com/aptgo/apt-go/internal/aptcore"
	"github.com/aptgo/apt-go/internal/source"
)

// httpTimeFormat is the RFC1123 variant If-Modified-Since is sent in, per
// spec.md §6's literal "Day, DD Mon YYYY HH:MM:SS GMT".
const httpTimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// Dir is an index cache rooted at a directory.
type Dir struct {
	root string
}

// New returns a Dir rooted at root. The directory is created lazily on
// first write.
func New(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the cache directory path.
func (d *Dir) Root() string { return d.root }

// filenameFor derives the cache filename for a remote URL: strip the
// scheme, replace '/' with '_', and drop a trailing ".gz".
func filenameFor(url string) string {
	s := url
	if idx := strings.Index(s, "://"); idx >= 0 {
		s = s[idx+3:]
	}
	s = strings.TrimSuffix(s, ".gz")
	return strings.ReplaceAll(s, "/", "_")
}

func (d *Dir) pathFor(url string) string {
	return filepath.Join(d.root, filenameFor(url))
}

// PathForIndex returns the local cache path a source's index file (Packages.gz
// or Sources.gz, already gzip-decoded) is stored at, given its remote URL.
func (d *Dir) PathForIndex(indexURL string) string {
	return d.pathFor(indexURL)
}

// RefreshResult reports what Refresh did for one source.
type RefreshResult struct {
	Source    aptcore.Source
	Unchanged bool
}

// Refresh performs the conditional-download protocol of spec.md §6 for a
// single source: fetch InRelease with If-Modified-Since, and on a changed
// MD5 for this source's index path, fetch and gzip-decode the new index.
func (d *Dir) Refresh(ctx context.Context, client *http.Client, src aptcore.Source, arch string) (RefreshResult, error) {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return RefreshResult{}, errors.Wrapf(err, "creating cache dir %s", d.root)
	}

	releaseURL := source.InReleaseURL(src)
	releasePath := d.pathFor(releaseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseURL, nil)
	if err != nil {
		return RefreshResult{}, errors.Wrapf(err, "building request for %s", releaseURL)
	}
	if fi, statErr := os.Stat(releasePath); statErr == nil {
		req.Header.Set("If-Modified-Since", fi.ModTime().UTC().Format(httpTimeFormat))
	}

	resp, err := client.Do(req)
	if err != nil {
		return RefreshResult{}, errors.Wrapf(err, "fetching %s", releaseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return RefreshResult{Source: src, Unchanged: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return RefreshResult{}, errors.Errorf("unexpected status %d fetching %s", resp.StatusCode, releaseURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RefreshResult{}, errors.Wrapf(err, "reading %s", releaseURL)
	}
	if err := writeFileAtomic(releasePath, body); err != nil {
		return RefreshResult{}, err
	}

	indexPath := source.IndexPath(src, arch)
	md5sums := parseInRelease(string(body))
	newMD5, ok := md5sums[indexPath]
	if !ok {
		return RefreshResult{}, errors.Errorf("InRelease for %s has no entry for %s", releaseURL, indexPath)
	}

	indexURL := source.IndexURL(src, arch)
	localPath := d.pathFor(indexURL)
	md5SidecarPath := localPath + ".md5"

	if oldMD5, err := os.ReadFile(md5SidecarPath); err == nil && strings.TrimSpace(string(oldMD5)) == newMD5 {
		return RefreshResult{Source: src, Unchanged: true}, nil
	}

	if err := d.fetchIndex(ctx, client, indexURL, localPath); err != nil {
		return RefreshResult{}, err
	}
	if err := os.WriteFile(md5SidecarPath, []byte(newMD5), 0o644); err != nil {
		return RefreshResult{}, errors.Wrapf(err, "writing md5 sidecar for %s", localPath)
	}
	return RefreshResult{Source: src}, nil
}

func (d *Dir) fetchIndex(ctx context.Context, client *http.Client, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "building request for %s", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "decompressing %s", url)
	}
	defer gz.Close()

	decoded, err := io.ReadAll(gz)
	if err != nil {
		return errors.Wrapf(err, "decompressing %s", url)
	}
	return writeFileAtomic(destPath, decoded)
}

// DownloadArchive fetches url into a temp file next to destPath, then copies
// it over destPath; the copy writes destPath in place, so the placement is
// not atomic. If
// progress is non-nil, bytes are teed through it as they arrive so a caller
// can drive a download progress bar without buffering the whole archive.
func DownloadArchive(ctx context.Context, client *http.Client, url, destPath string, progress io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "building request for %s", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", destPath)
	}
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".apt-go-archive-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", destPath)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	var dst io.Writer = tmp
	if progress != nil {
		dst = io.MultiWriter(tmp, progress)
	}
	if _, err := io.Copy(dst, resp.Body); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "downloading %s", url)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing temp file for %s", destPath)
	}
	if err := shutil.CopyFile(tmpPath, destPath, false); err != nil {
		return errors.Wrapf(err, "placing %s", destPath)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the same directory as path
// then copies it over path. The copy writes path in place, so a reader that
// opens path while the copy runs can see a partially written file.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".apt-go-cache-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", path)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing temp file for %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing temp file for %s", path)
	}
	if err := shutil.CopyFile(tmpPath, path, false); err != nil {
		return errors.Wrapf(err, "placing %s", path)
	}
	return nil
}

// parseInRelease extracts "MD5SUM  SIZE  PATH" lines from an InRelease body.
func parseInRelease(body string) map[string]string {
	out := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			continue
		}
		md5, size, path := fields[0], fields[1], fields[2]
		if len(md5) != 32 {
			continue
		}
		if _, err := strconv.ParseInt(size, 10, 64); err != nil {
			continue
		}
		out[path] = md5
	}
	return out
}

// ReadAll walks the cache directory and ingests every non-sidecar file,
// tolerating per-file read errors per spec.md §7 (the cache directory may
// contain unrelated entries such as the lock file).
func (d *Dir) ReadAll(mode aptcore.IngestMode) (*aptcore.Universe, error) {
	u := aptcore.NewUniverse()
	if _, err := os.Stat(d.root); os.IsNotExist(err) {
		return u, nil
	}

	err := godirwalk.Walk(d.root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || strings.HasSuffix(path, ".md5") {
				return nil
			}
			f, err := os.Open(path)
			if err != nil {
				return nil
			}
			defer f.Close()
			pkgs, err := aptcore.IngestReader(f, mode)
			if err != nil {
				return nil
			}
			u.AddAll(pkgs)
			return nil
		},
		Unsorted:            true,
		FollowSymbolicLinks: false,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking cache dir %s", d.root)
	}
	return u, nil
}

// Clean removes every cached archive file (".deb") under archiveDir,
// tolerating unreadable entries the same way ReadAll does, and returns the
// paths it removed.
func Clean(archiveDir string) ([]string, error) {
	var removed []string
	if _, err := os.Stat(archiveDir); os.IsNotExist(err) {
		return removed, nil
	}
	err := godirwalk.Walk(archiveDir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || !strings.HasSuffix(path, ".deb") {
				return nil
			}
			if err := os.Remove(path); err == nil {
				removed = append(removed, path)
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return removed, errors.Wrapf(err, "walking archive dir %s", archiveDir)
	}
	return removed, nil
}

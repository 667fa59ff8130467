package dpkg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver writes a tiny shell script standing in for dpkg that records its
// arguments and exits with the given status.
func fakeDriver(t *testing.T, exitCode int) (*Driver, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake driver script is POSIX shell only")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-dpkg")
	argsLog := filepath.Join(dir, "args.log")
	contents := fmt.Sprintf("#!/bin/sh\necho \"$@\" > %q\nexit %d\n", argsLog, exitCode)
	require.NoError(t, os.WriteFile(script, []byte(contents), 0o755))
	return New(script, "/var/lib/dpkg-test"), argsLog
}

func TestExtractInvokesUnpackWithAdminDir(t *testing.T) {
	d, argsLog := fakeDriver(t, 0)
	err := d.Extract(context.Background(), "libfoo", "/tmp/libfoo.deb")
	require.NoError(t, err)

	recorded, readErr := os.ReadFile(argsLog)
	require.NoError(t, readErr)
	assert.Contains(t, string(recorded), "--admindir /var/lib/dpkg-test")
	assert.Contains(t, string(recorded), "--unpack /tmp/libfoo.deb")
}

func TestConfigureAndRemoveAndPurge(t *testing.T) {
	d, argsLog := fakeDriver(t, 0)

	require.NoError(t, d.Configure(context.Background(), "libfoo"))
	recorded, _ := os.ReadFile(argsLog)
	assert.Contains(t, string(recorded), "--configure libfoo")

	require.NoError(t, d.Remove(context.Background(), "libfoo"))
	recorded, _ = os.ReadFile(argsLog)
	assert.Contains(t, string(recorded), "--remove libfoo")

	require.NoError(t, d.Purge(context.Background(), "libfoo"))
	recorded, _ = os.ReadFile(argsLog)
	assert.Contains(t, string(recorded), "--purge libfoo")
}

func TestRunFailureWrapsStderr(t *testing.T) {
	d, _ := fakeDriver(t, 1)
	err := d.Configure(context.Background(), "libfoo")
	require.Error(t, err)

	var installErr *InstallFailedError
	require.ErrorAs(t, err, &installErr)
	assert.Equal(t, "libfoo", installErr.Name)
}

func TestNewDefaultsBinaryName(t *testing.T) {
	d := New("", "/admin")
	assert.Equal(t, "dpkg", d.Binary)
}

package lockfile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	l := New(path)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, l.Acquire(ctx))
	assert.Equal(t, path, l.Path())
	require.NoError(t, l.Release())
}

func TestReleaseWithoutAcquireIsNoop(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "lock"))
	assert.NoError(t, l.Release())
}

func TestAcquireContendsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	first := New(path)
	second := New(path)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, first.Acquire(ctx))

	blockedCtx, blockedCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer blockedCancel()
	err := second.Acquire(blockedCtx)
	assert.Error(t, err)

	require.NoError(t, first.Release())

	freeCtx, freeCancel := context.WithTimeout(context.Background(), time.Second)
	defer freeCancel()
	assert.NoError(t, second.Acquire(freeCtx))
	assert.NoError(t, second.Release())
}

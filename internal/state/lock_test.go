package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_AcquireRelease(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "install", "survival")
	lock := ForInstance(dir)
	assert.Equal(t, dir+".lock", lock.Path())

	require.NoError(t, lock.Acquire())
	data, err := os.ReadFile(lock.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "owner="+lock.Owner())

	second := ForInstance(dir)
	err = second.Acquire()
	var lerr *LockedError
	require.True(t, errors.As(err, &lerr))
	assert.Contains(t, err.Error(), "pid ")

	require.NoError(t, lock.Release())
	assert.NoFileExists(t, lock.Path())

	require.NoError(t, second.Acquire())
	require.NoError(t, second.Release())
}

func TestLock_StaleLockIsTakenOver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.lock")
	require.NoError(t, os.WriteFile(path, []byte("pid=1\nowner=old\n"), 0644))
	old := time.Now().Add(-2 * StaleAfter)
	require.NoError(t, os.Chtimes(path, old, old))

	lock := NewLock(path)
	require.NoError(t, lock.Acquire())
	assert.Equal(t, lock.Owner(), readField(path, "owner"))
}

func TestLock_TouchKeepsLockFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.lock")
	lock := NewLock(path)
	require.NoError(t, lock.Acquire())

	old := time.Now().Add(-2 * StaleAfter)
	require.NoError(t, os.Chtimes(path, old, old))
	require.NoError(t, lock.Touch())

	assert.Error(t, NewLock(path).Acquire())
}

func TestLock_ReleaseLeavesForeignLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.lock")
	require.NoError(t, os.WriteFile(path, []byte("pid=1\nowner=someone-else\n"), 0644))

	require.NoError(t, NewLock(path).Release())
	assert.FileExists(t, path)
}

func TestLock_ReleaseMissing(t *testing.T) {
	assert.NoError(t, NewLock(filepath.Join(t.TempDir(), "none.lock")).Release())
}

func TestLock_StaleAfterOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.lock")
	require.NoError(t, NewLock(path).Acquire())

	old := time.Now().Add(-time.Second)
	require.NoError(t, os.Chtimes(path, old, old))

	assert.Error(t, NewLock(path).Acquire(), "default interval still treats it as fresh")
	assert.NoError(t, NewLock(path).WithStaleAfter(100*time.Millisecond).Acquire())
}

func TestLock_HeartbeatKeepsLockFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.lock")
	stale := 150 * time.Millisecond
	lock := NewLock(path).WithStaleAfter(stale)
	require.NoError(t, lock.Acquire())

	stop := lock.Heartbeat(context.Background())
	time.Sleep(3 * stale)

	err := NewLock(path).WithStaleAfter(stale).Acquire()
	var lerr *LockedError
	assert.True(t, errors.As(err, &lerr), "heartbeat should keep the lock from going stale")

	stop()
	old := time.Now().Add(-2 * stale)
	require.NoError(t, os.Chtimes(path, old, old))
	time.Sleep(stale)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.WithinDuration(t, old, info.ModTime(), 10*time.Millisecond, "stopped heartbeat must not touch the lock")
}

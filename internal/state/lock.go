// Package state guards an instance directory against concurrent runs.
package state

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcman-io/mcman/internal/logging"
)

// StaleAfter is the default time a lock file may go untouched before
// another run may break it.
const StaleAfter = 10 * time.Minute

// LockedError reports a lock held by another run.
type LockedError struct {
	Path   string
	Holder string
}

func (e *LockedError) Error() string {
	msg := fmt.Sprintf("instance is locked by another run (lock file: %s)", e.Path)
	if e.Holder != "" {
		msg += " held by " + e.Holder
	}
	return msg + ". If this is an error, remove the lock file manually"
}

// Lock is a host-local lock file. Each Lock carries a unique owner id so
// Release never removes a lock some other run has since taken.
type Lock struct {
	path       string
	owner      string
	staleAfter time.Duration
}

func NewLock(path string) *Lock {
	return &Lock{path: path, owner: uuid.NewString(), staleAfter: StaleAfter}
}

// WithStaleAfter sets how long the lock file may go untouched before it is
// considered abandoned. Non-positive values keep the default.
func (l *Lock) WithStaleAfter(d time.Duration) *Lock {
	if d > 0 {
		l.staleAfter = d
	}
	return l
}

// ForInstance returns the lock guarding an instance directory.
func ForInstance(instanceDir string) *Lock {
	return NewLock(filepath.Clean(instanceDir) + ".lock")
}

func (l *Lock) Path() string  { return l.path }
func (l *Lock) Owner() string { return l.owner }

// Acquire creates the lock file. A lock untouched for the stale interval is removed
// and taken over.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	err := l.create()
	if !errors.Is(err, fs.ErrExist) {
		return err
	}

	info, statErr := os.Stat(l.path)
	if statErr != nil || time.Since(info.ModTime()) <= l.staleAfter {
		return &LockedError{Path: l.path, Holder: readHolder(l.path)}
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale lock file: %w", err)
	}

	err = l.create()
	if errors.Is(err, fs.ErrExist) {
		return &LockedError{Path: l.path, Holder: readHolder(l.path)}
	}
	return err
}

func (l *Lock) create() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return err
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	content := fmt.Sprintf("pid=%d\nowner=%s\ntime=%s\n", os.Getpid(), l.owner, time.Now().UTC().Format(time.RFC3339))
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	return f.Close()
}

// Touch marks the lock as still in use.
func (l *Lock) Touch() error {
	now := time.Now()
	return os.Chtimes(l.path, now, now)
}

// Heartbeat touches the lock every third of the stale interval until the
// returned stop func is called or ctx ends, so a slow step is not mistaken
// for a crashed run. stop waits for the heartbeat goroutine to exit.
func (l *Lock) Heartbeat(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(l.staleAfter / 3)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.Touch(); err != nil {
					logging.Debug("failed to refresh lock", "path", l.path, "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// Release removes the lock file if this Lock still owns it.
func (l *Lock) Release() error {
	if holder := readField(l.path, "owner"); holder != "" && holder != l.owner {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

func readHolder(path string) string {
	pid := readField(path, "pid")
	if pid == "" {
		return ""
	}
	return "pid " + pid
}

func readField(path, key string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if k, v, ok := strings.Cut(sc.Text(), "="); ok && k == key {
			return v
		}
	}
	return ""
}

package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mcman-io/mcman/internal/ir"
	"github.com/mcman-io/mcman/internal/logging"
	"github.com/mcman-io/mcman/internal/provider"
	"github.com/mcman-io/mcman/pkg/source"
	"golang.org/x/time/rate"
)

const (
	chunkSize     = 32 * 1024
	progressEvery = 8 << 20

	partSuffix    = ".part"
	corruptSuffix = ".corrupt"
)

// Options tune a Downloader.
type Options struct {
	// Timeout bounds each attempt. Zero means DefaultTimeout.
	Timeout time.Duration
	// Retry governs transient transport failures. Nil means DefaultRetryPolicy.
	Retry *RetryPolicy
	// RateLimit caps combined throughput in bytes per second. Zero is unlimited.
	RateLimit int64
	// KeepFailed leaves a digest-mismatched download at <dest>.corrupt
	// instead of deleting it.
	KeepFailed bool
}

// Downloader streams artifacts to disk while hashing them.
type Downloader struct {
	registry *provider.Registry
	opts     Options
	limiter  *rate.Limiter
}

func NewDownloader(registry *provider.Registry, opts Options) *Downloader {
	d := &Downloader{registry: registry, opts: opts}
	if opts.RateLimit > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), chunkSize)
	}
	return d
}

// Fetch downloads f to dest. Bytes land in dest+".part" first and are only
// renamed to dest after the digest checks out, so dest never holds a partial
// or corrupt artifact.
func (d *Downloader) Fetch(ctx context.Context, f ir.RemoteFile, dest string) error {
	u, err := url.Parse(f.Src)
	if err != nil {
		return &TransportError{URL: f.Src, Err: fmt.Errorf("invalid artifact URL: %w", err)}
	}
	src, err := d.registry.ForURL(u)
	if err != nil {
		return &TransportError{URL: f.Src, Err: err}
	}

	if !f.SHA.Verified() {
		logging.Warn("artifact has no digest, skipping verification", "url", f.Src, "file", f.Filename)
	}

	part := dest + partSuffix
	start := time.Now()
	var size int64
	var sum string

	err = RetryWithBackoff(ctx, d.opts.Retry, func() error {
		var attemptErr error
		size, sum, attemptErr = d.attempt(ctx, src, u, part)
		if attemptErr != nil && isRetryable(attemptErr) {
			logging.Warn("download attempt failed", "url", f.Src, "error", attemptErr)
		}
		return attemptErr
	}, isRetryable)
	if err != nil {
		_ = os.Remove(part)
		return err
	}

	if f.SHA.Verified() && !f.SHA.Matches(sum) {
		ierr := &IntegrityError{URL: f.Src, Path: dest, Expected: string(f.SHA), Actual: sum}
		ierr.KeptAt = d.discard(part, dest)
		return ierr
	}

	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("failed to move %s into place: %w", dest, err)
	}

	logging.Info("downloaded",
		"file", f.Filename,
		"dest", dest,
		"size", humanize.Bytes(uint64(size)),
		"duration", time.Since(start).Round(time.Millisecond),
		"digest", f.SHA.String())
	return nil
}

// attempt performs one streaming download into part and returns the byte
// count and hex SHA-256 of what was written.
func (d *Downloader) attempt(ctx context.Context, src source.Source, u *url.URL, part string) (int64, string, error) {
	ctx, cancel := WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	body, err := src.Fetch(ctx, u)
	if err != nil {
		return 0, "", newTransportError(u.String(), err)
	}
	defer body.Close()

	out, err := os.OpenFile(part, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create %s: %w", part, err)
	}

	var r io.Reader = body
	if d.limiter != nil {
		r = &limitedReader{ctx: ctx, r: body, limiter: d.limiter}
	}

	h := sha256.New()
	buf := make([]byte, chunkSize)
	var total, nextReport int64 = 0, progressEvery
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				return total, "", fmt.Errorf("failed to write %s: %w", part, werr)
			}
			h.Write(buf[:n])
			total += int64(n)
			if total >= nextReport {
				logging.Debug("download progress", "url", u.String(), "received", humanize.Bytes(uint64(total)))
				nextReport += progressEvery
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			out.Close()
			return total, "", newTransportError(u.String(), rerr)
		}
	}

	if err := out.Sync(); err != nil {
		out.Close()
		return total, "", fmt.Errorf("failed to sync %s: %w", part, err)
	}
	if err := out.Close(); err != nil {
		return total, "", fmt.Errorf("failed to close %s: %w", part, err)
	}
	return total, hex.EncodeToString(h.Sum(nil)), nil
}

// discard disposes of a download that failed verification and returns the
// path it was kept at, if any.
func (d *Downloader) discard(part, dest string) string {
	if d.opts.KeepFailed {
		kept := dest + corruptSuffix
		if err := os.Rename(part, kept); err == nil {
			return kept
		}
	}
	_ = os.Remove(part)
	return ""
}

// ParseRate parses a human byte rate such as "10MB" or "512KiB" (per second).
func ParseRate(s string) (int64, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	return int64(n), nil
}

// Package archive unpacks Java runtime distributions.
package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format identifies an archive container and its compression.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatTar
	FormatTarGzip
	FormatTarZstd
	FormatTarLZ4
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatTar:
		return "tar"
	case FormatTarGzip:
		return "tar.gz"
	case FormatTarZstd:
		return "tar.zst"
	case FormatTarLZ4:
		return "tar.lz4"
	default:
		return "unknown"
	}
}

var suffixes = []struct {
	suffix string
	format Format
}{
	{".tar.gz", FormatTarGzip},
	{".tgz", FormatTarGzip},
	{".tar.zst", FormatTarZstd},
	{".tzst", FormatTarZstd},
	{".tar.lz4", FormatTarLZ4},
	{".tar", FormatTar},
	{".zip", FormatZip},
}

// DetectFormat infers the archive format from a file name.
func DetectFormat(name string) (Format, error) {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.format, nil
		}
	}
	return FormatUnknown, fmt.Errorf("cannot infer archive format from %q (supported: .zip, .tar, .tar.gz, .tgz, .tar.zst, .tar.lz4)", name)
}

// Extract unpacks the archive at path into dest, inferring the format from
// the file name. dest is created if needed.
func Extract(ctx context.Context, path, dest string) error {
	format, err := DetectFormat(filepath.Base(path))
	if err != nil {
		return err
	}
	return ExtractFormat(ctx, format, path, dest)
}

// ExtractFormat unpacks the archive at path into dest as the given format.
// Every entry is created through an os.Root opened on dest, so no entry can
// be written outside it even through symlinks unpacked earlier.
func ExtractFormat(ctx context.Context, format Format, path, dest string) error {
	dest, err := filepath.Abs(dest)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	t, err := newTree(dest)
	if err != nil {
		return err
	}
	defer t.root.Close()

	if format == FormatZip {
		return extractZip(ctx, path, t)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader
	switch format {
	case FormatTar:
		r = f
	case FormatTarGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case FormatTarZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to open zstd stream %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	case FormatTarLZ4:
		r = lz4.NewReader(f)
	default:
		return fmt.Errorf("unsupported archive format %s", format)
	}

	return extractTar(ctx, tar.NewReader(r), t)
}

// tree is the destination of one extraction.
type tree struct {
	root     *os.Root
	dir      string
	resolved string // dir with symlinks resolved
}

func newTree(dest string) (*tree, error) {
	resolved, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dest, err)
	}
	return &tree{root: root, dir: dest, resolved: resolved}, nil
}

func extractTar(ctx context.Context, tr *tar.Reader, t *tree) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		name, err := within(t.dir, hdr.Name)
		if err != nil {
			return err
		}

		mode := os.FileMode(hdr.Mode).Perm()
		switch hdr.Typeflag {
		case tar.TypeDir:
			err = t.mkdir(name, mode|0700)
		case tar.TypeReg:
			err = t.writeFile(name, tr, mode)
		case tar.TypeSymlink:
			err = t.symlink(name, hdr.Linkname)
		case tar.TypeLink:
			err = t.hardlink(name, hdr.Linkname)
		default:
			// Device nodes, fifos and pax metadata have no place in a runtime tree.
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to unpack %s: %w", hdr.Name, err)
		}
	}
}

func extractZip(ctx context.Context, path string, t *tree) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open zip %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		name, err := within(t.dir, f.Name)
		if err != nil {
			return err
		}

		info := f.FileInfo()
		switch {
		case info.IsDir():
			err = t.mkdir(name, info.Mode().Perm()|0700)
		case info.Mode()&os.ModeSymlink != 0:
			var link []byte
			if link, err = readZipEntry(f); err == nil {
				err = t.symlink(name, string(link))
			}
		default:
			var rc io.ReadCloser
			if rc, err = f.Open(); err != nil {
				return fmt.Errorf("failed to open zip entry %s: %w", f.Name, err)
			}
			mode := info.Mode().Perm()
			if mode == 0 {
				// Archives written on Windows carry no unix mode.
				mode = 0644
			}
			err = t.writeFile(name, rc, mode)
			rc.Close()
		}
		if err != nil {
			return fmt.Errorf("failed to unpack %s: %w", f.Name, err)
		}
	}
	return nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, 4096))
}

// within cleans name into a path relative to dest and rejects names that
// leave it lexically.
func within(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("archive entry %q has an absolute path", name)
	}
	target := filepath.Join(dest, name)
	if !contained(dest, target) {
		return "", fmt.Errorf("archive entry %q escapes the destination", name)
	}
	rel, err := filepath.Rel(dest, target)
	if err != nil {
		return "", err
	}
	return rel, nil
}

func contained(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (t *tree) mkdir(name string, mode os.FileMode) error {
	if name == "." {
		return nil
	}
	return t.root.MkdirAll(name, mode)
}

func (t *tree) parent(name string) error {
	if dir := filepath.Dir(name); dir != "." {
		return t.root.MkdirAll(dir, 0755)
	}
	return nil
}

func (t *tree) writeFile(name string, r io.Reader, mode os.FileMode) error {
	if err := t.parent(name); err != nil {
		return err
	}
	// A later entry replaces an earlier one rather than writing through it.
	if err := t.root.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	out, err := t.root.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// The umask may have stripped bits from the create mode.
	return t.root.Chmod(name, mode)
}

// symlink creates name pointing at link. The link is resolved from the
// real location of its parent, and ".." may only lead the link so that no
// intermediate symlink can redirect it outside the tree.
func (t *tree) symlink(name, link string) error {
	if filepath.IsAbs(link) || strings.HasPrefix(link, "/") {
		return fmt.Errorf("symlink points to absolute path %q", link)
	}
	descending := false
	for _, part := range strings.Split(filepath.ToSlash(link), "/") {
		switch part {
		case "", ".":
		case "..":
			if descending {
				return fmt.Errorf("symlink target %q climbs after descending", link)
			}
		default:
			descending = true
		}
	}

	if err := t.parent(name); err != nil {
		return err
	}
	parent, err := filepath.EvalSymlinks(filepath.Join(t.dir, filepath.Dir(name)))
	if err != nil {
		return err
	}
	if !contained(t.resolved, parent) || !contained(t.resolved, filepath.Join(parent, link)) {
		return fmt.Errorf("symlink points outside the destination (%q)", link)
	}

	if err := t.root.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return t.root.Symlink(link, name)
}

func (t *tree) hardlink(name, link string) error {
	src, err := within(t.dir, link)
	if err != nil {
		return err
	}
	if err := t.parent(name); err != nil {
		return err
	}
	if err := t.root.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return t.root.Link(src, name)
}

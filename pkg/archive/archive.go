// Package archive provides read-only access to zip archives of page images.
// Every extraction reopens the archive, so concurrent callers never share a
// read position.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"
)

// SupportedExtensions lists the raster types accepted for conversion.
var SupportedExtensions = []string{".tiff", ".tif", ".jpg", ".jpeg", ".png"}

const resourceForkDir = "__MACOSX/"

// Member is one file entry inside an archive.
type Member struct {
	Name string
	Size int64
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxMemberSize rejects members whose uncompressed size exceeds n bytes.
// A value of zero or less disables the limit.
func WithMaxMemberSize(n int64) Option {
	return func(r *Reader) {
		r.maxMemberSize = n
	}
}

// Reader lists and extracts members of a zip archive.
type Reader struct {
	path          string
	members       []Member
	maxMemberSize int64
}

// Open validates the archive at path and reads its listing.
// It returns ErrUnreadable if the file is missing or not a zip archive.
func Open(path string, opts ...Option) (*Reader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}
	defer rc.Close()

	r := &Reader{path: path}
	for _, opt := range opts {
		opt(r)
	}

	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		r.members = append(r.members, Member{
			Name: f.Name,
			Size: int64(f.UncompressedSize64),
		})
	}

	return r, nil
}

// Path returns the archive location on disk.
func (r *Reader) Path() string {
	return r.path
}

// List returns the archive members in archive order.
func (r *Reader) List() []Member {
	return slices.Clone(r.members)
}

// Extract copies the named member to dir, keeping only its base name,
// and returns the path of the extracted file.
func (r *Reader) Extract(name, dir string) (string, error) {
	rc, err := zip.OpenReader(r.path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrMemberMissing, name, err)
	}
	defer rc.Close()

	idx := slices.IndexFunc(rc.File, func(f *zip.File) bool {
		return f.Name == name
	})
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrMemberMissing, name)
	}
	f := rc.File[idx]

	if r.maxMemberSize > 0 && f.UncompressedSize64 > uint64(r.maxMemberSize) {
		return "", fmt.Errorf("%w: %s is %d bytes", ErrMemberTooLarge, name, f.UncompressedSize64)
	}

	dest := filepath.Join(dir, baseName(name))
	if err := r.copyMember(f, dest); err != nil {
		os.Remove(dest)
		return "", err
	}

	return dest, nil
}

func (r *Reader) copyMember(f *zip.File, dest string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMemberMissing, f.Name, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	var reader io.Reader = src
	if r.maxMemberSize > 0 {
		reader = io.LimitReader(src, r.maxMemberSize+1)
	}

	n, err := io.Copy(out, reader)
	if err != nil {
		out.Close()
		return fmt.Errorf("%w: %s: %w", ErrMemberMissing, f.Name, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}

	if r.maxMemberSize > 0 && n > r.maxMemberSize {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrMemberTooLarge, f.Name, r.maxMemberSize)
	}

	return nil
}

// Supported reports whether name has a convertible raster extension.
// Resource-fork sidecars stored under __MACOSX/ are never supported.
func Supported(name string) bool {
	if strings.HasPrefix(name, resourceForkDir) {
		return false
	}
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(name)))
}

// baseName strips any directory component, accepting both separators so
// archives produced on Windows extract safely.
func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		name = "member"
	}
	return name
}

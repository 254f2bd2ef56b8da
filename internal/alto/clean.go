package alto

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// Observer receives progress for each descriptor processed.
type Observer interface {
	Started(total int)
	TaskDone(name string, err error)
}

type nopObserver struct{}

func (nopObserver) Started(int) {}

func (nopObserver) TaskDone(string, error) {}

// CleanSummary reports the outcome of CleanArchive.
type CleanSummary struct {
	Members     int
	Descriptors int
	Cleaned     int
	Failures    map[string]error
}

// CleanArchive rewrites the source image file name of every descriptor in
// the zip at path and replaces the archive in place. A descriptor that
// cannot be cleaned is logged and kept unchanged; it never aborts the run.
func CleanArchive(ctx context.Context, path string, logger *slog.Logger, obs Observer) (CleanSummary, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	logger = logger.With("system", "alto", "archive", path)
	summary := CleanSummary{Failures: map[string]error{}}

	workspace, err := os.MkdirTemp("", "docflow-clean-*")
	if err != nil {
		return summary, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	members, err := extractAll(path, workspace)
	if err != nil {
		return summary, err
	}
	summary.Members = len(members)

	var descriptors []string
	for _, m := range members {
		if strings.EqualFold(filepath.Ext(m.Name), ".xml") {
			descriptors = append(descriptors, m.Name)
		}
	}
	summary.Descriptors = len(descriptors)

	obs.Started(len(descriptors))
	for _, name := range descriptors {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		err := CleanFileName(filepath.Join(workspace, filepath.FromSlash(name)))
		if err != nil {
			logger.Warn("descriptor not cleaned", "member", name, "error", err)
			summary.Failures[name] = err
		} else {
			summary.Cleaned++
		}
		obs.TaskDone(name, err)
	}

	tmp := path + ".tmp"
	if err := writeArchive(tmp, workspace, members); err != nil {
		os.Remove(tmp)
		return summary, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return summary, fmt.Errorf("replace %s: %w", path, err)
	}

	logger.Info(
		"archive cleaned",
		"descriptors", summary.Descriptors,
		"cleaned", summary.Cleaned,
		"failed", len(summary.Failures),
	)
	return summary, nil
}

type member struct {
	Name     string
	Mode     os.FileMode
	Modified time.Time
}

// extractAll writes every file member under dir and returns the members in
// archive order. Directory entries are recreated from file paths.
func extractAll(path, dir string) ([]member, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer zr.Close()

	var members []member
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
			return nil, fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
		}

		dst := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
			return nil, err
		}
		if err := extractFile(f, dst); err != nil {
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}

		members = append(members, member{Name: f.Name, Mode: f.Mode(), Modified: f.Modified})
	}
	return members, nil
}

func extractFile(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeArchive deflates the extracted members back into a new zip at path,
// preserving archive order and modification times.
func writeArchive(path, dir string, members []member) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	zw := zip.NewWriter(f)
	for _, m := range members {
		if err := addFile(zw, dir, m); err != nil {
			zw.Close()
			f.Close()
			return fmt.Errorf("compress %s: %w", m.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finish %s: %w", path, err)
	}
	return f.Close()
}

func addFile(zw *zip.Writer, dir string, m member) error {
	src, err := os.Open(filepath.Join(dir, filepath.FromSlash(m.Name)))
	if err != nil {
		return err
	}
	defer src.Close()

	hdr := &zip.FileHeader{
		Name:     m.Name,
		Method:   zip.Deflate,
		Modified: m.Modified,
	}
	hdr.SetMode(m.Mode)

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

package alto

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"
)

// MaxStemLength is the longest image stem RenamePairs still treats as a bare
// page number worth qualifying with its directory name.
const MaxStemLength = 5

// ImageExtensions are the image types RenamePairs pairs with descriptors.
var ImageExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp",
	".tiff", ".tif", ".webp", ".svg", ".ico",
}

// RenameSummary reports the outcome of RenamePairs.
type RenameSummary struct {
	Renamed  int
	Skipped  int
	Failures map[string]error
}

// rename is replaced in tests to simulate filesystem failures.
var rename = os.Rename

type pair struct {
	image      string
	descriptor string
}

// RenamePairs walks root and, for every image with a descriptor of the same
// stem, prefixes both with the parent directory name and points the
// descriptor's fileName elements at the renamed image. Stems longer than
// MaxStemLength, or already prefixed, are left alone.
func RenamePairs(root string, logger *slog.Logger) (RenameSummary, error) {
	logger = logger.With("system", "alto")
	summary := RenameSummary{Failures: map[string]error{}}

	var pairs []pair
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isImage(d.Name()) {
			return nil
		}

		stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		descriptor := filepath.Join(filepath.Dir(path), stem+".xml")
		if _, err := os.Stat(descriptor); err != nil {
			return nil
		}

		pairs = append(pairs, pair{image: path, descriptor: descriptor})
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("walk %s: %w", root, err)
	}

	for _, p := range pairs {
		renamed, err := renamePair(p)
		switch {
		case err != nil:
			logger.Warn("pair not renamed", "image", p.image, "error", err)
			summary.Failures[p.image] = err
		case renamed:
			logger.Debug("pair renamed", "image", p.image)
			summary.Renamed++
		default:
			summary.Skipped++
		}
	}

	return summary, nil
}

func renamePair(p pair) (bool, error) {
	dir := filepath.Dir(p.image)
	parent := filepath.Base(dir)
	ext := filepath.Ext(p.image)
	stem := strings.TrimSuffix(filepath.Base(p.image), ext)

	if utf8.RuneCountInString(stem) > MaxStemLength || strings.HasPrefix(stem, parent+"_") {
		return false, nil
	}

	d, err := Open(p.descriptor)
	if err != nil {
		return false, err
	}
	original, err := os.ReadFile(p.descriptor)
	if err != nil {
		return false, err
	}

	newStem := parent + "_" + stem
	newImage := filepath.Join(dir, newStem+ext)
	newDescriptor := filepath.Join(dir, newStem+".xml")

	for _, target := range []string{newImage, newDescriptor} {
		if _, err := os.Stat(target); err == nil {
			return false, fmt.Errorf("target exists: %s", target)
		}
	}

	if err := rename(p.image, newImage); err != nil {
		return false, err
	}

	// a failure past this point puts the image name and descriptor back
	rollback := func(err error) (bool, error) {
		if rerr := rename(newImage, p.image); rerr != nil {
			return false, errors.Join(err, fmt.Errorf("restore %s: %w", p.image, rerr))
		}
		if werr := os.WriteFile(p.descriptor, original, 0o644); werr != nil {
			return false, errors.Join(err, fmt.Errorf("restore %s: %w", p.descriptor, werr))
		}
		return false, err
	}

	for _, el := range d.FileNames() {
		el.SetText(newStem + ext)
	}
	if err := d.Save(); err != nil {
		return rollback(err)
	}

	if err := rename(p.descriptor, newDescriptor); err != nil {
		return rollback(err)
	}
	return true, nil
}

func isImage(name string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(name)))
}

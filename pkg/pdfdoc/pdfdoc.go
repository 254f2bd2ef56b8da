// Package pdfdoc assembles single-page PDF documents into one output file.
package pdfdoc

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var configOnce sync.Once

// Configuration returns a relaxed pdfcpu configuration that never reads or
// creates a user configuration directory.
func Configuration() *model.Configuration {
	configOnce.Do(func() {
		model.ConfigPath = "disable"
	})

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Merger concatenates single-page documents.
type Merger struct{}

// New creates a Merger.
func New() *Merger {
	return &Merger{}
}

// Merge writes the pages, in exactly the given order, to output.
// It returns ErrNoPages without touching output when pages is empty.
func (m *Merger) Merge(pages []string, output string) error {
	if len(pages) == 0 {
		return ErrNoPages
	}

	if err := api.MergeCreateFile(pages, output, false, Configuration()); err != nil {
		if rmErr := os.Remove(output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
		return fmt.Errorf("%w: %s: %w", ErrMergeWrite, output, err)
	}

	return nil
}

// PageCount returns the number of pages in the document at path.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return api.PageCount(f, Configuration())
}

// PageDims returns the media box size, in points, of every page of the
// document at path.
func PageDims(path string) ([]types.Dim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return api.PageDims(f, Configuration())
}

// Package imaging converts one raster image into a single-page PDF document
// with an RGB color model and a fixed print resolution.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/tiff"

	"golang.org/x/image/draw"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/pdfdoc"
)

// DefaultDPI is the print resolution applied when none is configured.
const DefaultDPI = 600

var extensions = []string{".tiff", ".tif", ".jpg", ".jpeg", ".png"}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithCompression sets the PNG compression level used for re-encoded pages.
func WithCompression(level png.CompressionLevel) Option {
	return func(n *Normalizer) {
		n.encoder.CompressionLevel = level
	}
}

// Normalizer decodes images and writes them as single-page documents.
// It is safe for concurrent use.
type Normalizer struct {
	encoder png.Encoder
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize decodes src, converts it to 3-channel RGB when needed, and writes
// a single-page document at dst whose page size maps one pixel to 72/dpi
// points (see PageSize). It returns dst.
func (n *Normalizer) Normalize(src, dst string, dpi int) (string, error) {
	if dpi <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidDPI, dpi)
	}
	if !slices.Contains(extensions, strings.ToLower(filepath.Ext(src))) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(src))
	}

	page, bounds, err := n.load(src)
	if err != nil {
		return "", err
	}

	if err := writePage(page, bounds, dst, dpi); err != nil {
		return "", err
	}

	return dst, nil
}

// load returns an encoded image ready for embedding and its pixel bounds.
// The source file is closed before load returns.
func (n *Normalizer) load(src string) ([]byte, image.Rectangle, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("%w: %s: %w", ErrDecode, filepath.Base(src), err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("%w: %s: %w", ErrDecode, filepath.Base(src), err)
	}

	// baseline JPEG in YCbCr is already 3-channel; embed it untouched
	if _, ok := img.(*image.YCbCr); ok && format == "jpeg" {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, image.Rectangle{}, fmt.Errorf("%w: %s: %w", ErrDecode, filepath.Base(src), err)
		}
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, image.Rectangle{}, fmt.Errorf("%w: %s: %w", ErrDecode, filepath.Base(src), err)
		}
		return data, img.Bounds(), nil
	}

	var buf bytes.Buffer
	if err := n.encoder.Encode(&buf, ToRGB(img)); err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("%w: encode %s: %w", ErrWrite, filepath.Base(src), err)
	}
	return buf.Bytes(), img.Bounds(), nil
}

// ToRGB returns img unchanged when it is already an opaque 8-bit color image,
// otherwise an opaque RGBA copy. Alpha is dropped rather than composited.
func ToRGB(img image.Image) image.Image {
	switch m := img.(type) {
	case *image.YCbCr:
		return m
	case *image.RGBA:
		if m.Opaque() {
			return m
		}
	case *image.NRGBA:
		if m.Opaque() {
			return m
		}
	}

	b := img.Bounds()
	dst := image.NewRGBA(b)

	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		draw.Draw(dst, b, img, b.Min, draw.Src)
		return dst
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

// PageSize returns the page dimensions in points of an image w by h pixels
// printed at dpi.
func PageSize(w, h, dpi int) types.Dim {
	scale := 72 / float64(dpi)
	return types.Dim{Width: float64(w) * scale, Height: float64(h) * scale}
}

func writePage(data []byte, bounds image.Rectangle, dst string, dpi int) (err error) {
	dim := PageSize(bounds.Dx(), bounds.Dy(), dpi)

	// the image fills a page of exactly its printed size
	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &dim
	imp.PageSize = ""
	imp.UserDim = true
	imp.Pos = types.BottomLeft
	imp.Scale = 1
	imp.ScaleAbs = true
	imp.DPI = dpi

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrWrite, cerr)
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	if err := api.ImportImages(nil, f, []io.Reader{bytes.NewReader(data)}, imp, pdfdoc.Configuration()); err != nil {
		if isDecodeFailure(err) {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return nil
}

func isDecodeFailure(err error) bool {
	var fe jpeg.FormatError
	var ue jpeg.UnsupportedError
	return errors.As(err, &fe) || errors.As(err, &ue)
}

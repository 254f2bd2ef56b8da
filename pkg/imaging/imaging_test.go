package imaging_test

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/imaging"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/pdfdoc"
)

func sampleImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: 90, A: 0xff})
		}
	}
	return img
}

func writeFixture(t *testing.T, name string, encode func(f *os.File) error) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()
	if err := encode(f); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return path
}

func TestNormalizeFormats(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 12, 9))
	translucent := sampleImage(10, 10)
	translucent.SetNRGBA(0, 0, color.NRGBA{R: 200, A: 0x40})

	tests := []struct {
		name   string
		file   string
		encode func(f *os.File) error
	}{
		{"png", "p.png", func(f *os.File) error { return png.Encode(f, sampleImage(16, 24)) }},
		{"jpeg", "p.jpg", func(f *os.File) error { return jpeg.Encode(f, sampleImage(16, 24), nil) }},
		{"uppercase extension", "p.JPEG", func(f *os.File) error { return jpeg.Encode(f, sampleImage(8, 8), nil) }},
		{"grayscale jpeg", "g.jpg", func(f *os.File) error { return jpeg.Encode(f, gray, nil) }},
		{"tiff", "p.tif", func(f *os.File) error { return tiff.Encode(f, sampleImage(20, 10), nil) }},
		{"grayscale png", "g.png", func(f *os.File) error { return png.Encode(f, gray) }},
		{"alpha png", "a.png", func(f *os.File) error { return png.Encode(f, translucent) }},
	}

	n := imaging.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeFixture(t, tt.file, tt.encode)
			dst := filepath.Join(t.TempDir(), "page.pdf")

			got, err := n.Normalize(src, dst, 300)
			if err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}
			if got != dst {
				t.Errorf("path: got %s, want %s", got, dst)
			}

			count, err := pdfdoc.PageCount(dst)
			if err != nil {
				t.Fatalf("page count: %v", err)
			}
			if count != 1 {
				t.Errorf("page count: got %d, want 1", count)
			}
		})
	}
}

func TestNormalizePageSizeFollowsDPI(t *testing.T) {
	src := writeFixture(t, "wide.png", func(f *os.File) error {
		return png.Encode(f, image.NewGray(image.Rect(0, 0, 600, 300)))
	})

	tests := []struct {
		dpi        int
		wantWidth  float64
		wantHeight float64
	}{
		{72, 600, 300},
		{300, 144, 72},
		{600, 72, 36},
	}

	n := imaging.New()
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d dpi", tt.dpi), func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), "page.pdf")
			if _, err := n.Normalize(src, dst, tt.dpi); err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}

			dims, err := pdfdoc.PageDims(dst)
			if err != nil {
				t.Fatalf("page dims: %v", err)
			}
			if len(dims) != 1 {
				t.Fatalf("pages: got %d, want 1", len(dims))
			}
			if math.Abs(dims[0].Width-tt.wantWidth) > 0.01 || math.Abs(dims[0].Height-tt.wantHeight) > 0.01 {
				t.Errorf("page size: got %.2fx%.2f, want %.0fx%.0f", dims[0].Width, dims[0].Height, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestPageSize(t *testing.T) {
	got := imaging.PageSize(2480, 3508, 300)
	if math.Abs(got.Width-595.2) > 0.001 || math.Abs(got.Height-841.92) > 0.001 {
		t.Errorf("PageSize(2480, 3508, 300) = %.3fx%.3f, want 595.200x841.920", got.Width, got.Height)
	}
}

func TestNormalizeErrors(t *testing.T) {
	valid := writeFixture(t, "ok.png", func(f *os.File) error { return png.Encode(f, sampleImage(4, 4)) })
	corrupt := writeFixture(t, "bad.png", func(f *os.File) error {
		_, err := f.WriteString("\x89PNG\r\n\x1a\nthis is not a png")
		return err
	})
	gif := writeFixture(t, "p.gif", func(f *os.File) error {
		_, err := f.WriteString("GIF89a")
		return err
	})

	tests := []struct {
		name    string
		src     string
		dpi     int
		wantErr error
	}{
		{"corrupt data", corrupt, 600, imaging.ErrDecode},
		{"unsupported extension", gif, 600, imaging.ErrUnsupportedFormat},
		{"missing file", filepath.Join(t.TempDir(), "gone.png"), 600, imaging.ErrDecode},
		{"zero dpi", valid, 0, imaging.ErrInvalidDPI},
		{"negative dpi", valid, -72, imaging.ErrInvalidDPI},
	}

	n := imaging.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), "page.pdf")

			_, err := n.Normalize(tt.src, dst, tt.dpi)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Normalize() error = %v, want %v", err, tt.wantErr)
			}

			if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
				t.Errorf("expected no output at %s after failure", dst)
			}
		})
	}
}

func TestToRGB(t *testing.T) {
	t.Run("opaque color image is kept", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
		if got := imaging.ToRGB(img); got != image.Image(img) {
			t.Error("expected the same image back")
		}
	})

	t.Run("gray becomes rgba", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 2, 2))
		img.SetGray(1, 1, color.Gray{Y: 120})

		out, ok := imaging.ToRGB(img).(*image.RGBA)
		if !ok {
			t.Fatalf("expected *image.RGBA")
		}
		if got := out.RGBAAt(1, 1); got != (color.RGBA{R: 120, G: 120, B: 120, A: 0xff}) {
			t.Errorf("pixel: got %v", got)
		}
	})

	t.Run("alpha is dropped", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 0x80})

		out := imaging.ToRGB(img).(*image.RGBA)
		got := out.RGBAAt(0, 0)
		if got.A != 0xff {
			t.Errorf("alpha: got %d, want 255", got.A)
		}
		if got.R < 198 || got.G < 98 || got.B < 48 {
			t.Errorf("color not preserved: %v", got)
		}
	})
}

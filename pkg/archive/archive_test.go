package archive_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/archive"
)

func writeZip(t *testing.T, entries map[string][]byte, order []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pages.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := w.Write(entries[name]); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

func TestOpenListsInArchiveOrder(t *testing.T) {
	order := []string{"p10.png", "scans/", "p2.png", "notes.txt"}
	path := writeZip(t, map[string][]byte{
		"p10.png":   []byte("ten"),
		"p2.png":    []byte("two!"),
		"notes.txt": []byte("n"),
	}, order)

	r, err := archive.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	got := r.List()
	want := []archive.Member{
		{Name: "p10.png", Size: 3},
		{Name: "p2.png", Size: 4},
		{Name: "notes.txt", Size: 1},
	}

	if len(got) != len(want) {
		t.Fatalf("List() returned %d members, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("member %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestOpenUnreadable(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			"missing file",
			func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.zip") },
		},
		{
			"not a zip",
			func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "fake.zip")
				if err := os.WriteFile(p, []byte("plain text"), 0o600); err != nil {
					t.Fatal(err)
				}
				return p
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := archive.Open(tt.path(t))
			if !errors.Is(err, archive.ErrUnreadable) {
				t.Errorf("Open() error = %v, want ErrUnreadable", err)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	path := writeZip(t, map[string][]byte{
		"scans/p1.tif": []byte("tiff bytes"),
	}, []string{"scans/p1.tif"})

	r, err := archive.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	dir := t.TempDir()
	out, err := r.Extract("scans/p1.tif", dir)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if out != filepath.Join(dir, "p1.tif") {
		t.Errorf("path: got %s, want %s", out, filepath.Join(dir, "p1.tif"))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read extracted: %v", err)
	}
	if string(data) != "tiff bytes" {
		t.Errorf("content: got %q", data)
	}
}

func TestExtractMissingMember(t *testing.T) {
	path := writeZip(t, map[string][]byte{"a.png": []byte("a")}, []string{"a.png"})

	r, err := archive.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	_, err = r.Extract("b.png", t.TempDir())
	if !errors.Is(err, archive.ErrMemberMissing) {
		t.Errorf("Extract() error = %v, want ErrMemberMissing", err)
	}
}

func TestExtractTooLarge(t *testing.T) {
	path := writeZip(t, map[string][]byte{"big.png": make([]byte, 64)}, []string{"big.png"})

	r, err := archive.Open(path, archive.WithMaxMemberSize(16))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	dir := t.TempDir()
	_, err = r.Extract("big.png", dir)
	if !errors.Is(err, archive.ErrMemberTooLarge) {
		t.Fatalf("Extract() error = %v, want ErrMemberTooLarge", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no extracted files, found %d", len(entries))
	}
}

func TestExtractConcurrent(t *testing.T) {
	entries := map[string][]byte{}
	var order []string
	for _, name := range []string{"1.png", "2.png", "3.png", "4.png", "5.png", "6.png", "7.png", "8.png"} {
		entries[name] = []byte("data-" + name)
		order = append(order, name)
	}
	path := writeZip(t, entries, order)

	r, err := archive.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(order))
	for _, name := range order {
		wg.Go(func() {
			out, err := r.Extract(name, t.TempDir())
			if err != nil {
				errs <- err
				return
			}
			data, err := os.ReadFile(out)
			if err != nil {
				errs <- err
				return
			}
			if string(data) != "data-"+name {
				errs <- errors.New("content mismatch for " + name)
			}
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"page.tif", true},
		{"page.TIFF", true},
		{"dir/page.JPG", true},
		{"page.jpeg", true},
		{"page.png", true},
		{"page.gif", false},
		{"page.xml", false},
		{"page", false},
		{"__MACOSX/._page.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := archive.Supported(tt.name); got != tt.want {
				t.Errorf("Supported(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

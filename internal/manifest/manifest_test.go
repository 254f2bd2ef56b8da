package manifest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/manifest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestASCII(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"Éloïse à Noël", "Eloise a Noel"},
		{"Œuvres complètes", "OEuvres completes"},
		{"Straße", "Strasse"},
		{"Łódź", "Lodz"},
		{"日本 text", " text"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := manifest.ASCII(tt.in); got != tt.want {
				t.Errorf("ASCII(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKebab(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"spaces", "Registre des délibérations", 0, "registre-des-deliberations"},
		{"punctuation", "Fonds X, vol. 2 (1789)", 0, "fonds-x-vol-2-1789"},
		{"camel case", "camelCaseLabel", 0, "camel-case-label"},
		{"acronym", "HTTPServer", 0, "http-server"},
		{"digit then upper", "Vol2Part", 0, "vol2-part"},
		{"ligature", "Œuvre", 0, "oeuvre"},
		{"ligature in capitals", "ŒUVRES Complètes", 0, "oeuvres-completes"},
		{"ligature mid word", "Cæsar", 0, "caesar"},
		{"decomposed accent", "Ele\u0301ve", 0, "eleve"},
		{"non latin word dropped", "日本 Atlas", 0, "atlas"},
		{"only symbols", "*** ---", 0, ""},
		{"truncated at dash", "alpha beta gamma", 12, "alpha-beta"},
		{"truncated without dash", "abcdefghij", 4, "abcd"},
		{"exact length", "alpha beta", 10, "alpha-beta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := manifest.Kebab(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("Kebab(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestKebabDefaultLength(t *testing.T) {
	got := manifest.Kebab(strings.Repeat("word ", 50), 0)
	if len(got) > manifest.DefaultMaxLength {
		t.Errorf("length %d exceeds %d", len(got), manifest.DefaultMaxLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("result %q ends with a dash", got)
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `"Atlas"`, "Atlas"},
		{"english preferred", `{"fr":["Carte"],"en":["Map"]}`, "Map"},
		{"none fallback", `{"fr":["Carte"],"none":["Plan"]}`, "Plan"},
		{"first sorted language", `{"it":["Mappa"],"de":["Karte"]}`, "Karte"},
		{"skips empty values", `{"en":["", " "],"fr":["Carte"]}`, "Carte"},
		{"v2 value object", `{"@value":"Registre","@language":"fr"}`, "Registre"},
		{"v2 array of objects", `[{"@value":"Registre","@language":"fr"}]`, "Registre"},
		{"v2 array of strings", `["", "Registre"]`, "Registre"},
		{"empty", ``, ""},
		{"number", `42`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := manifest.ParseLabel(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("ParseLabel(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "docflow/test" {
			http.Error(w, "bad agent "+ua, http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"label":{"en":["Registre des Délibérations"]}}`)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"label":"Fonds Dupont"}`)
	})
	mux.HandleFunc("/missing-label", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"x"}`)
	})
	mux.HandleFunc("/garbage", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>`)
	})
	mux.HandleFunc("/symbols", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"label":"***"}`)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchLabel(t *testing.T) {
	srv := newServer(t)
	c := manifest.NewClient(200*time.Millisecond, "docflow/test", discardLogger())

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr error
	}{
		{"language map", "/a", "Registre des Délibérations", nil},
		{"plain label", "/b", "Fonds Dupont", nil},
		{"not found", "/nope", "", manifest.ErrFetch},
		{"missing label", "/missing-label", "", manifest.ErrLabelMissing},
		{"not json", "/garbage", "", manifest.ErrInvalid},
		{"timeout", "/slow", "", manifest.ErrFetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.FetchLabel(context.Background(), srv.URL+tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchLabel: %v", err)
			}
			if got != tt.want {
				t.Errorf("label = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifests.json")
	if err := os.WriteFile(path, []byte(`{"https://x/a":"0001","https://x/b":"0002"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := manifest.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m) != 2 || m["https://x/b"] != "0002" {
		t.Errorf("got %v", m)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`["not", "an", "object"]`), 0o644)
	if _, err := manifest.Load(bad); err == nil {
		t.Error("expected error for non-object manifest list")
	}

	if _, err := manifest.Load(filepath.Join(dir, "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestProcess(t *testing.T) {
	srv := newServer(t)
	c := manifest.NewClient(time.Second, "docflow/test", discardLogger())
	root := t.TempDir()

	if err := os.Mkdir(filepath.Join(root, "fonds-dupont"), 0o755); err != nil {
		t.Fatal(err)
	}

	manifests := map[string]string{
		srv.URL + "/b":             "0002",
		srv.URL + "/a":             "0001",
		srv.URL + "/missing-label": "0003",
		srv.URL + "/symbols":       "0004",
	}

	var log bytes.Buffer
	summary, err := c.Process(context.Background(), manifests, root, 0, &log)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	wantLog := "0001 -> registre-des-deliberations/\n0002 -> fonds-dupont/\n"
	if log.String() != wantLog {
		t.Errorf("log:\n%s\nwant:\n%s", log.String(), wantLog)
	}

	if len(summary.Created) != 1 || summary.Created[0] != "registre-des-deliberations" {
		t.Errorf("created: %v", summary.Created)
	}
	if len(summary.Existing) != 1 || summary.Existing[0] != "fonds-dupont" {
		t.Errorf("existing: %v", summary.Existing)
	}
	if len(summary.Failures) != 2 {
		t.Fatalf("failures: %v", summary.Failures)
	}
	for url, err := range summary.Failures {
		if !errors.Is(err, manifest.ErrLabelMissing) {
			t.Errorf("%s: error = %v, want ErrLabelMissing", url, err)
		}
	}

	info, err := os.Stat(filepath.Join(root, "registre-des-deliberations"))
	if err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
}

func TestProcessCancelled(t *testing.T) {
	srv := newServer(t)
	c := manifest.NewClient(time.Second, "docflow/test", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Process(ctx, map[string]string{srv.URL + "/b": "1"}, t.TempDir(), 0, io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

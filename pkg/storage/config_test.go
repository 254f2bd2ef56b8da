package storage_test

import (
	"strings"
	"testing"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/storage"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Enabled {
		t.Error("storage should be disabled by default")
	}
	if cfg.ContainerName != "documents" {
		t.Errorf("container_name: got %s, want documents", cfg.ContainerName)
	}
	if cfg.PublishPrefix != "documents" {
		t.Errorf("publish_prefix: got %s, want documents", cfg.PublishPrefix)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_ENABLED", "true")
	t.Setenv("TEST_CONTAINER", "scans")
	t.Setenv("TEST_CONN", "override-connection")

	env := &storage.Env{
		Enabled:          "TEST_ENABLED",
		ContainerName:    "TEST_CONTAINER",
		ConnectionString: "TEST_CONN",
	}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if !cfg.Enabled {
		t.Error("enabled: got false, want true")
	}
	if cfg.ContainerName != "scans" {
		t.Errorf("container_name: got %s, want scans", cfg.ContainerName)
	}
	if cfg.ConnectionString != "override-connection" {
		t.Errorf("connection_string: got %s, want override-connection", cfg.ConnectionString)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{
			name:    "enabled without connection_string",
			cfg:     storage.Config{Enabled: true},
			wantErr: "connection_string required",
		},
		{
			name: "disabled without connection_string",
			cfg:  storage.Config{},
		},
		{
			name: "enabled and complete",
			cfg:  storage.Config{Enabled: true, ConnectionString: "conn"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{
		ContainerName:    "documents",
		ConnectionString: "base-conn",
	}

	overlay := storage.Config{Enabled: true, ConnectionString: "overlay-conn"}
	base.Merge(&overlay)

	if !base.Enabled {
		t.Error("enabled should be set by overlay")
	}
	if base.ContainerName != "documents" {
		t.Errorf("container_name should remain documents, got %s", base.ContainerName)
	}
	if base.ConnectionString != "overlay-conn" {
		t.Errorf("connection_string: got %s, want overlay-conn", base.ConnectionString)
	}
}

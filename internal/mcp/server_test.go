package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewServer(t *testing.T) {
	tmpDir := t.TempDir()

	stateDir := filepath.Join(tmpDir, ".uialign")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		t.Fatalf("create .uialign dir: %v", err)
	}

	cfg := &Config{
		Name:    "test-server",
		Version: "v1.0.0",
		Root:    tmpDir,
	}

	server, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	if server.server == nil {
		t.Error("Server.server is nil")
	}
	if server.store == nil {
		t.Error("Server.store is nil")
	}
	if server.orchestrator == nil {
		t.Error("Server.orchestrator is nil")
	}
	if server.root != tmpDir {
		t.Errorf("Server.root = %q, want %q", server.root, tmpDir)
	}
}

func TestNewServer_CreatesStateDir(t *testing.T) {
	// Fresh root without a .uialign directory.
	tmpDir := t.TempDir()

	cfg := &Config{
		Name:    "test-server",
		Version: "v1.0.0",
		Root:    tmpDir,
	}

	server, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	stateDir := filepath.Join(tmpDir, ".uialign")
	if _, err := os.Stat(stateDir); os.IsNotExist(err) {
		t.Error(".uialign directory was not created")
	}
	dbPath := filepath.Join(stateDir, "uialign.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("run database was not created")
	}
}

func TestClose(t *testing.T) {
	cfg := &Config{
		Name:    "test-server",
		Version: "v1.0.0",
		Root:    t.TempDir(),
	}

	server, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	if err := server.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// Multiple closes should be safe.
	if err := server.Close(); err != nil {
		t.Errorf("Second Close() error = %v", err)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	cfg := &Config{
		Name:    "test-server",
		Version: "v1.0.0",
		Root:    t.TempDir(),
	}

	server, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Run should return promptly instead of hanging on stdio.
	if err := server.Run(ctx); err == nil {
		t.Log("Run returned nil (acceptable in a test environment)")
	}
}

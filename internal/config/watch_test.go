package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_ReloadsOnFileWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	cfg := Default()
	cfg.Gateway.Port = 8080
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	live, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- Watch(path, live, stop, slog.Default()) }()

	// Give the watcher a moment to register the directory before writing.
	time.Sleep(100 * time.Millisecond)

	cfg.Gateway.Port = 9090
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save (update): %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if live.Gateway.Port == 9090 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	close(stop)
	if err := <-done; err != nil {
		t.Errorf("Watch returned error: %v", err)
	}

	if live.Gateway.Port != 9090 {
		t.Errorf("expected live config to pick up port 9090, got %d", live.Gateway.Port)
	}
}

func TestWatch_StopsCleanlyWithNoChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	live, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- Watch(path, live, stop, slog.Default()) }()

	time.Sleep(50 * time.Millisecond)
	close(stop)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after stop was closed")
	}
}

func TestWatch_MissingDirectoryErrors(t *testing.T) {
	live := Default()
	err := Watch(filepath.Join("does", "not", "exist", "config.json5"), live, make(chan struct{}), slog.Default())
	if err == nil {
		t.Error("expected error watching a nonexistent directory")
	}
}

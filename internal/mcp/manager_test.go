package mcp

import (
	"context"
	"testing"

	"github.com/radbot/gateway/internal/config"
	"github.com/radbot/gateway/internal/toolregistry"
)

func TestManager_StartWithNoServersIsNoop(t *testing.T) {
	m := NewManager(toolregistry.NewRegistry())
	if err := m.Start(context.Background(), nil); err != nil {
		t.Errorf("Start with no servers: %v", err)
	}
	if got := m.ServerStatus(); len(got) != 0 {
		t.Errorf("expected no server status entries, got %+v", got)
	}
}

func TestManager_StartSkipsDisabledServers(t *testing.T) {
	m := NewManager(toolregistry.NewRegistry())
	disabled := false
	cfgs := map[string]*config.MCPServerConfig{
		"search": {Transport: "stdio", Command: "echo", Enabled: &disabled},
	}
	if err := m.Start(context.Background(), cfgs); err != nil {
		t.Errorf("Start with a disabled server should not error: %v", err)
	}
	if got := m.ServerStatus(); len(got) != 0 {
		t.Errorf("expected disabled server never to connect, got %+v", got)
	}
}

func TestManager_ReconcileWithNoChangesIsNoop(t *testing.T) {
	m := NewManager(toolregistry.NewRegistry())
	m.Reconcile(context.Background(), nil)
	if got := m.ServerStatus(); len(got) != 0 {
		t.Errorf("expected no servers after reconciling an empty config, got %+v", got)
	}
}

func TestManager_StopWithNoServersIsNoop(t *testing.T) {
	m := NewManager(toolregistry.NewRegistry())
	m.Stop() // must not panic
}

package agentcore

import (
	"path/filepath"
	"testing"

	"otagent/internal/config"
	"otagent/internal/engine"
)

func TestSessionManagerStartStartsConfiguredSessions(t *testing.T) {
	eng := engine.NewMockEngine("inproc://test/push")
	store, err := config.Open(filepath.Join(t.TempDir(), "settings.ini"))
	if err != nil {
		t.Fatalf("config.Open: %v", err)
	}
	sm := NewSessionManager(eng, store)
	t.Cleanup(sm.Stop)

	if err := sm.Start(2, 1, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clients, servers := sm.Counts()
	if clients != 2 || servers != 1 {
		t.Fatalf("expected (2, 1), got (%d, %d)", clients, servers)
	}

	for i := 0; i < 2; i++ {
		if eng.Client(i) == nil {
			t.Fatalf("expected client session %d to exist", i)
		}
	}
}

func TestSessionManagerOnClientAddedPersistsCount(t *testing.T) {
	eng := engine.NewMockEngine("inproc://test/push")
	store, err := config.Open(filepath.Join(t.TempDir(), "settings.ini"))
	if err != nil {
		t.Fatalf("config.Open: %v", err)
	}
	sm := NewSessionManager(eng, store)
	t.Cleanup(sm.Stop)

	eng.StartClient(nil, 0)
	sm.OnClientAdded()

	if got := store.GetInt(config.KeyClients); got != 1 {
		t.Fatalf("expected persisted clients=1, got %d", got)
	}
}

func TestSessionManagerOnServerAddedPersistsCount(t *testing.T) {
	eng := engine.NewMockEngine("inproc://test/push")
	store, err := config.Open(filepath.Join(t.TempDir(), "settings.ini"))
	if err != nil {
		t.Fatalf("config.Open: %v", err)
	}
	sm := NewSessionManager(eng, store)
	t.Cleanup(sm.Stop)

	sm.OnServerAdded()

	if got := store.GetInt(config.KeyServers); got != 1 {
		t.Fatalf("expected persisted servers=1, got %d", got)
	}
}

package config

import (
	"path/filepath"
	"testing"
)

func TestIncrementPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.ini")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	v, err := s.Increment(KeyClients)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.GetInt(KeyClients); got != 1 {
		t.Fatalf("expected persisted value 1, got %d", got)
	}
}

func TestGenerateAndPersistKeysIfAbsentIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.ini")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	first, err := s.GenerateAndPersistKeysIfAbsent()
	if err != nil {
		t.Fatalf("GenerateAndPersistKeysIfAbsent: %v", err)
	}
	if first.ServerPublicKey == "" || first.ClientPublicKey == "" {
		t.Fatal("expected generated keys to be non-empty")
	}

	second, err := s.GenerateAndPersistKeysIfAbsent()
	if err != nil {
		t.Fatalf("GenerateAndPersistKeysIfAbsent (second call): %v", err)
	}
	if second != first {
		t.Fatalf("expected second call to be a no-op, got different keys: %+v vs %+v", first, second)
	}
}

func TestGetIntDefaultsToZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.ini")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := s.GetInt(KeyServers); got != 0 {
		t.Fatalf("expected default 0, got %d", got)
	}
}

// Package config implements the persisted Settings record: session
// counters and Curve key material, stored as INI and mutated under a
// single process-wide mutex.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pebbe/zmq4"
	"gopkg.in/ini.v1"

	"otagent/internal/logger"

	"github.com/rs/zerolog"
)

const section = "otagent"

const (
	KeyClients       = "clients"
	KeyServers       = "servers"
	KeyServerPrivkey = "server_privkey"
	KeyServerPubkey  = "server_pubkey"
	KeyClientPrivkey = "client_privkey"
	KeyClientPubkey  = "client_pubkey"
)

// Store is a single-mutex, flush-on-every-mutation INI-backed settings
// record, modeled on the load/save/validate shape of a JSON/YAML key file
// but rewritten for the INI format and this agent's settings schema.
type Store struct {
	mu   sync.Mutex
	path string
	file *ini.File
	log  zerolog.Logger
}

// Open loads path if it exists, or creates an empty in-memory file that
// Flush will create on first write.
func Open(path string) (*Store, error) {
	var f *ini.File
	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		f, err = ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
		}
	} else {
		f = ini.Empty()
	}
	f.Section(section) // ensure the section exists even when freshly created
	return &Store{path: path, file: f, log: logger.New()}, nil
}

// GetInt returns the integer at key, defaulting to 0 if absent or
// unparsable.
func (s *Store) GetInt(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Section(section).Key(key).MustInt(0)
}

// PutInt sets key to v and flushes.
func (s *Store) PutInt(key string, v int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Section(section).Key(key).SetValue(fmt.Sprintf("%d", v))
	return s.flushLocked()
}

// Increment adds 1 to the integer at key, flushes, and returns the new
// value. Contract: after Increment returns, any subsequent reader observes
// the new value and the file reflects it.
func (s *Store) Increment(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.file.Section(section).Key(key).MustInt(0) + 1
	s.file.Section(section).Key(key).SetValue(fmt.Sprintf("%d", v))
	if err := s.flushLocked(); err != nil {
		return v, err
	}
	return v, nil
}

// GetString returns the string at key, defaulting to "" if absent.
func (s *Store) GetString(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Section(section).Key(key).String()
}

// PutString sets key to val and flushes.
func (s *Store) PutString(key, val string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Section(section).Key(key).SetValue(val)
	return s.flushLocked()
}

// Flush rewrites the entire INI file. Crash-consistent at the coarse grain
// of "either the previous or the new value is present": it writes to a
// temp file in the same directory and renames over the target.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".otagent-settings-*.tmp")
	if err != nil {
		return fmt.Errorf("config: failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	if err := s.file.SaveTo(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: failed to write settings: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: failed to rename settings into place: %w", err)
	}
	return nil
}

// KeyMaterial is the Curve key bundle as persisted (Z85-encoded strings),
// read-only after construction.
type KeyMaterial struct {
	ServerPublicKey  string
	ServerPrivateKey string
	ClientPublicKey  string
	ClientPrivateKey string
}

// KeyMaterial reads the four persisted key fields.
func (s *Store) KeyMaterial() KeyMaterial {
	return KeyMaterial{
		ServerPublicKey:  s.GetString(KeyServerPubkey),
		ServerPrivateKey: s.GetString(KeyServerPrivkey),
		ClientPublicKey:  s.GetString(KeyClientPubkey),
		ClientPrivateKey: s.GetString(KeyClientPrivkey),
	}
}

// GenerateAndPersistKeysIfAbsent generates a fresh server and client
// keypair the first time the store has no key material, and persists them
// so external tooling can inspect the agent's identity.
func (s *Store) GenerateAndPersistKeysIfAbsent() (KeyMaterial, error) {
	existing := s.KeyMaterial()
	if existing.ServerPublicKey != "" && existing.ClientPublicKey != "" {
		return existing, nil
	}

	serverPub, serverPriv, err := zmq4.NewCurveKeypair()
	if err != nil {
		return KeyMaterial{}, fmt.Errorf("config: failed to generate server keypair: %w", err)
	}
	clientPub, clientPriv, err := zmq4.NewCurveKeypair()
	if err != nil {
		return KeyMaterial{}, fmt.Errorf("config: failed to generate client keypair: %w", err)
	}

	km := KeyMaterial{
		ServerPublicKey:  serverPub,
		ServerPrivateKey: serverPriv,
		ClientPublicKey:  clientPub,
		ClientPrivateKey: clientPriv,
	}

	for key, val := range map[string]string{
		KeyServerPubkey:  km.ServerPublicKey,
		KeyServerPrivkey: km.ServerPrivateKey,
		KeyClientPubkey:  km.ClientPublicKey,
		KeyClientPrivkey: km.ClientPrivateKey,
	} {
		if err := s.PutString(key, val); err != nil {
			return KeyMaterial{}, fmt.Errorf("config: failed to persist %s: %w", key, err)
		}
	}

	s.log.Info().Msg("generated and persisted new agent key material")
	return km, nil
}

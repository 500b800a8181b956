package agentcore

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"otagent/internal/config"
	"otagent/internal/engine"
	"otagent/internal/logger"
)

// refreshInterval is the fixed recurring OTX refresh period.
const refreshInterval = 30 * time.Second

// SessionManager starts the configured number of engine client/server
// sessions at boot and schedules their periodic refresh.
//
// Each client session performs one immediate refresh and then ticks every
// refreshInterval; there is no wall-clock schedule anchor to keep in sync
// across restarts.
type SessionManager struct {
	mu      sync.Mutex
	eng     engine.Engine
	store   *config.Store
	log     zerolog.Logger
	stop    chan struct{}
	wg      sync.WaitGroup
	clients int
	servers int
}

// NewSessionManager builds a SessionManager bound to eng and store.
func NewSessionManager(eng engine.Engine, store *config.Store) *SessionManager {
	return &SessionManager{
		eng:   eng,
		store: store,
		log:   logger.New(),
		stop:  make(chan struct{}),
	}
}

// Start launches clientCount client sessions (indices 0..clientCount-1)
// and serverCount server sessions.
func (s *SessionManager) Start(clientCount, serverCount int, engineArgs map[string]string) error {
	for i := 0; i < clientCount; i++ {
		if _, err := s.eng.StartClient(engineArgs, i); err != nil {
			return fmt.Errorf("agentcore: failed to start client session %d: %w", i, err)
		}
		s.scheduleRefresh(i)
	}
	s.mu.Lock()
	s.clients = clientCount
	s.mu.Unlock()

	for i := 0; i < serverCount; i++ {
		if err := s.eng.StartServer(engineArgs, i, false); err != nil {
			return fmt.Errorf("agentcore: failed to start server session %d: %w", i, err)
		}
	}
	s.mu.Lock()
	s.servers = serverCount
	s.mu.Unlock()

	return nil
}

// scheduleRefresh performs one immediate refresh for client index, then
// starts a ticker goroutine refreshing it every refreshInterval until
// Stop is called.
func (s *SessionManager) scheduleRefresh(index int) {
	client := s.eng.Client(index)
	if client == nil {
		s.log.Warn().Int("index", index).Msg("cannot schedule refresh: no such client session")
		return
	}
	if err := client.RefreshOTX(); err != nil {
		s.log.Error().Err(err).Int("index", index).Msg("initial OTX refresh failed")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if err := client.RefreshOTX(); err != nil {
					s.log.Error().Err(err).Int("index", index).Msg("scheduled OTX refresh failed")
				}
			}
		}
	}()
}

// OnClientAdded increments the persisted client counter and schedules
// refresh for the newly created index.
func (s *SessionManager) OnClientAdded() {
	n, err := s.store.Increment(config.KeyClients)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to persist client count increment")
	}
	newIndex := n - 1 // indices are 0-based; n is the count after increment
	s.scheduleRefresh(newIndex)

	s.mu.Lock()
	s.clients = n
	s.mu.Unlock()
}

// OnServerAdded increments the persisted server counter.
func (s *SessionManager) OnServerAdded() {
	n, err := s.store.Increment(config.KeyServers)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to persist server count increment")
	}
	s.mu.Lock()
	s.servers = n
	s.mu.Unlock()
}

// Counts returns the current in-memory client/server session counts.
func (s *SessionManager) Counts() (clients, servers int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clients, s.servers
}

// Stop halts every refresh ticker and waits for the goroutines to exit.
func (s *SessionManager) Stop() {
	close(s.stop)
	s.wg.Wait()
}

package agentcore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"otagent/internal/assoc"
	"otagent/internal/bootstrap"
	"otagent/internal/config"
	"otagent/internal/engine"
	"otagent/internal/logger"
	"otagent/internal/zapauth"
)

// Orchestrator wires every component together in dependency order and
// owns their lifecycles: ConfigStore, AssociationTables, ZAPAuthenticator,
// SessionManager, WorkerPool, InternalBroker, Frontend, PushBridge.
type Orchestrator struct {
	store      *config.Store
	tables     *assoc.Tables
	zap        *zapauth.Authenticator
	sessions   *SessionManager
	workers    *WorkerPool
	broker     *InternalBroker
	frontend   *Frontend
	pushBridge *PushBridge
	log        zerolog.Logger
}

// Start constructs and starts every component per cfg.
func Start(cfg *bootstrap.Config, eng engine.Engine) (*Orchestrator, error) {
	log := logger.New()

	store, err := config.Open(cfg.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("agentcore: failed to open config store: %w", err)
	}
	km, err := store.GenerateAndPersistKeysIfAbsent()
	if err != nil {
		return nil, fmt.Errorf("agentcore: failed to establish key material: %w", err)
	}

	tables, err := assoc.New(assoc.DefaultTaskCapacity)
	if err != nil {
		return nil, fmt.Errorf("agentcore: failed to build association tables: %w", err)
	}

	zap, err := zapauth.New(km.ClientPublicKey)
	if err != nil {
		return nil, fmt.Errorf("agentcore: failed to build ZAP authenticator: %w", err)
	}
	if err := zap.Start(); err != nil {
		return nil, fmt.Errorf("agentcore: failed to start ZAP authenticator: %w", err)
	}

	sessions := NewSessionManager(eng, store)

	workerCount := WorkerPoolSize(cfg.Workers)
	workers, err := StartWorkerPool(workerCount, eng, tables, sessions)
	if err != nil {
		zap.Stop()
		return nil, fmt.Errorf("agentcore: failed to start worker pool: %w", err)
	}

	workerEndpoints := workers.Endpoints()
	if len(workerEndpoints) == 0 {
		workers.Stop()
		zap.Stop()
		return nil, fmt.Errorf("agentcore: orchestrator requires at least one worker endpoint")
	}
	broker, err := NewInternalBroker(workerEndpoints)
	if err != nil {
		workers.Stop()
		zap.Stop()
		return nil, fmt.Errorf("agentcore: failed to start internal broker: %w", err)
	}

	if cfg.Frontend.SocketPath == "" {
		broker.Close()
		workers.Stop()
		zap.Stop()
		return nil, fmt.Errorf("agentcore: orchestrator requires a non-empty frontend socket path")
	}
	frontend, err := NewFrontend(cfg.Frontend.SocketPath, cfg.Frontend.Endpoints, km, broker)
	if err != nil {
		broker.Close()
		workers.Stop()
		zap.Stop()
		return nil, fmt.Errorf("agentcore: failed to build frontend: %w", err)
	}
	frontend.Start()

	pushBridge, err := NewPushBridge(eng.PushEndpoint(), tables, frontend)
	if err != nil {
		frontend.Stop()
		broker.Close()
		workers.Stop()
		zap.Stop()
		return nil, fmt.Errorf("agentcore: failed to build push bridge: %w", err)
	}
	pushBridge.Start()

	if err := sessions.Start(cfg.Sessions.Clients, cfg.Sessions.Servers, cfg.Engine.Args); err != nil {
		pushBridge.Stop()
		frontend.Stop()
		broker.Close()
		workers.Stop()
		zap.Stop()
		return nil, fmt.Errorf("agentcore: failed to start configured sessions: %w", err)
	}

	log.Info().
		Int("workers", workerCount).
		Int("clients", cfg.Sessions.Clients).
		Int("servers", cfg.Sessions.Servers).
		Msg("otagent started")

	return &Orchestrator{
		store:      store,
		tables:     tables,
		zap:        zap,
		sessions:   sessions,
		workers:    workers,
		broker:     broker,
		frontend:   frontend,
		pushBridge: pushBridge,
		log:        log,
	}, nil
}

// Shutdown tears components down in cooperative order: Frontend (refuses
// new work), InternalBroker, WorkerPool, PushBridge, SessionManager.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.frontend.Stop()
	o.broker.Close()
	o.workers.Stop()
	o.pushBridge.Stop()
	o.sessions.Stop()
	o.zap.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// WorkerStats exposes the worker pool's operational snapshot.
func (o *Orchestrator) WorkerStats() []WorkerStats {
	return o.workers.Stats()
}

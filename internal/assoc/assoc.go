// Package assoc holds the two association maps that let asynchronous
// engine events be routed back to the right client connection: a
// task->(connection,nym) table on the hot request path, and a
// nym->connection table on the cooler push path. Each has its own mutex:
// they are never merged into one lock and never made lock-free.
package assoc

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"otagent/internal/logger"
)

// TaskAssociation is the (connection, nym) pair recorded for a TaskId.
type TaskAssociation struct {
	Connection string
	Nym        string
}

// DefaultTaskCapacity bounds the task table so a client that disconnects
// before its task completes does not leak the entry forever (resolves the
// unbounded-table open question by eviction rather than by a TTL clock).
const DefaultTaskCapacity = 4096

// Tables is the pair of association maps owned by the agent.
type Tables struct {
	taskMu sync.Mutex
	tasks  *lru.Cache[string, TaskAssociation]

	nymMu sync.RWMutex
	nyms  map[string]string // nymId -> connectionId

	log zerolog.Logger
}

// New builds Tables with the task table bounded to capacity entries. A
// capacity of 0 falls back to DefaultTaskCapacity.
func New(capacity int) (*Tables, error) {
	if capacity <= 0 {
		capacity = DefaultTaskCapacity
	}
	t := &Tables{
		nyms: make(map[string]string),
		log:  logger.New(),
	}
	cache, err := lru.NewWithEvict(capacity, func(taskID string, a TaskAssociation) {
		t.log.Warn().
			Str("task_id", taskID).
			Str("connection", a.Connection).
			Msg("evicted task association before completion push arrived")
	})
	if err != nil {
		return nil, fmt.Errorf("assoc: failed to build task cache: %w", err)
	}
	t.tasks = cache
	return t, nil
}

// AssociateTask records that taskId belongs to connection/nym. Duplicate
// taskIds overwrite; the engine guarantees uniqueness, so this is
// defensive bookkeeping, not a race.
func (t *Tables) AssociateTask(connection, nym, taskID string) error {
	if connection == "" || nym == "" || taskID == "" {
		return fmt.Errorf("assoc: associateTask requires non-empty connection, nym, and taskId")
	}
	t.taskMu.Lock()
	defer t.taskMu.Unlock()
	t.tasks.Add(taskID, TaskAssociation{Connection: connection, Nym: nym})
	return nil
}

// TakeTask atomically looks up and removes the association for taskId.
func (t *Tables) TakeTask(taskID string) (TaskAssociation, bool) {
	t.taskMu.Lock()
	defer t.taskMu.Unlock()
	a, ok := t.tasks.Get(taskID)
	if !ok {
		return TaskAssociation{}, false
	}
	t.tasks.Remove(taskID)
	return a, true
}

// AssociateNym records connection as the owner of nym, but only if nym has
// no existing owner. First-write-wins: a later different connection for
// the same nym never overwrites.
func (t *Tables) AssociateNym(connection, nym string) error {
	if nym == "" {
		return fmt.Errorf("assoc: associateNym requires a non-empty nym")
	}
	t.nymMu.Lock()
	defer t.nymMu.Unlock()
	if _, exists := t.nyms[nym]; exists {
		return nil
	}
	t.nyms[nym] = connection
	return nil
}

// LookupNym returns the connection associated with nym, if any. It never
// removes the entry: nyms persist across reconnects within a run.
func (t *Tables) LookupNym(nym string) (string, bool) {
	t.nymMu.RLock()
	defer t.nymMu.RUnlock()
	c, ok := t.nyms[nym]
	return c, ok
}

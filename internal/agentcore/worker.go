package agentcore

import (
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/pebbe/zmq4"
	"github.com/rs/zerolog"

	"otagent/internal/assoc"
	"otagent/internal/engine"
	"otagent/internal/logger"
	"otagent/internal/rpcproto"
)

// WorkerEndpoint formats the process-internal address for worker i,
// stable for the agent's lifetime.
func WorkerEndpoint(i int) string {
	return fmt.Sprintf("inproc://opentxs/agent/backend/%d", i)
}

// WorkerPoolSize returns max(hardware_parallelism, 1), or the configured
// override when positive.
func WorkerPoolSize(configured int) int {
	if configured > 0 {
		return configured
	}
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// WorkerStats is an operational snapshot of one worker's activity.
type WorkerStats struct {
	Endpoint        string
	RequestsHandled uint64
}

// worker owns one REP socket bound to its own WorkerEndpoint and calls
// the engine for every request it receives.
type worker struct {
	index    int
	endpoint string
	socket   *zmq4.Socket
	engine   engine.Engine
	tables   *assoc.Tables
	sessions *SessionManager
	log      zerolog.Logger

	stop chan struct{}
	done chan struct{}

	requestsHandled uint64
}

// WorkerPool is the fixed pool of reply workers.
type WorkerPool struct {
	workers []*worker
}

// StartWorkerPool creates and starts size workers, each bound to its own
// endpoint.
func StartWorkerPool(size int, eng engine.Engine, tables *assoc.Tables, sessions *SessionManager) (*WorkerPool, error) {
	pool := &WorkerPool{}
	for i := 0; i < size; i++ {
		w, err := newWorker(i, eng, tables, sessions)
		if err != nil {
			pool.Stop()
			return nil, err
		}
		pool.workers = append(pool.workers, w)
	}
	return pool, nil
}

// Endpoints returns every worker's bind address, in order.
func (p *WorkerPool) Endpoints() []string {
	eps := make([]string, len(p.workers))
	for i, w := range p.workers {
		eps[i] = w.endpoint
	}
	return eps
}

// Stats returns a snapshot of every worker's activity.
func (p *WorkerPool) Stats() []WorkerStats {
	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = WorkerStats{Endpoint: w.endpoint, RequestsHandled: w.requestsHandled}
	}
	return stats
}

// Stop signals every worker to stop and waits for them to exit.
func (p *WorkerPool) Stop() {
	for _, w := range p.workers {
		if w.stop != nil {
			close(w.stop)
		}
	}
	for _, w := range p.workers {
		if w.done != nil {
			<-w.done
		}
		if w.socket != nil {
			w.socket.Close()
		}
	}
}

func newWorker(index int, eng engine.Engine, tables *assoc.Tables, sessions *SessionManager) (*worker, error) {
	endpoint := WorkerEndpoint(index)
	socket, err := zmq4.NewSocket(zmq4.REP)
	if err != nil {
		return nil, fmt.Errorf("agentcore: failed to create worker %d socket: %w", index, err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("agentcore: failed to set worker %d linger: %w", index, err)
	}
	if err := socket.Bind(endpoint); err != nil {
		socket.Close()
		return nil, fmt.Errorf("agentcore: failed to bind worker %d to %s: %w", index, endpoint, err)
	}

	w := &worker{
		index:    index,
		endpoint: endpoint,
		socket:   socket,
		engine:   eng,
		tables:   tables,
		sessions: sessions,
		log:      logger.New(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *worker) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		frames, err := w.socket.RecvMessageBytes(zmq4.DONTWAIT)
		if err != nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		w.handleRequest(frames)
	}
}

// handleRequest decodes one worker-bound request, dispatches it to the
// engine, records any task/nym associations the response implies, and
// sends back the encoded RPCResponse.
func (w *worker) handleRequest(frames [][]byte) {
	if len(frames) != 2 {
		w.log.Warn().Int("frames", len(frames)).Msg("malformed worker request, dropping")
		return
	}
	cmdBytes, connBytes := frames[0], frames[1]
	connectionID := string(connBytes)
	requestID := uuid.NewString()

	cmd, err := rpcproto.UnmarshalCommand(cmdBytes)
	if err != nil {
		w.log.Warn().Err(err).Str("request_id", requestID).Msg("failed to decode RPCCommand, dropping")
		return
	}
	w.log.Debug().Str("request_id", requestID).Str("kind", string(cmd.Kind)).Int("worker", w.index).Msg("handling request")

	// Step 1: associate any nyms the command asserts up front.
	for _, nym := range cmd.AssociateNym {
		if err := w.tables.AssociateNym(connectionID, nym); err != nil {
			w.log.Warn().Err(err).Str("nym", nym).Msg("associateNym rejected")
		}
	}

	// Step 2: invoke the engine.
	resp, err := w.engine.RPC(cmd)
	if err != nil {
		w.log.Error().Err(err).Str("kind", string(cmd.Kind)).Msg("engine RPC failed")
		resp = &rpcproto.RPCResponse{Status: []rpcproto.StatusCode{rpcproto.StatusError}}
	}

	// Step 3+4: classify and record a task association if queued.
	if resp.HasQueuedTask() {
		lookup := func(idx int, accountID string) (string, bool) {
			client := w.engine.Client(idx)
			if client == nil {
				return "", false
			}
			return client.AccountOwner(accountID)
		}
		if nym, ok := rpcproto.TaskNym(cmd, resp, lookup); ok {
			if err := w.tables.AssociateTask(connectionID, nym, resp.Task[0].ID); err != nil {
				w.log.Warn().Err(err).Msg("associateTask rejected")
			}
		}
	}

	// Steps 5+6: session bookkeeping side effects and CreateNym nym
	// associations.
	if resp.FirstStatusSuccess() {
		switch cmd.Kind {
		case rpcproto.KindAddClientSession:
			w.sessions.OnClientAdded()
		case rpcproto.KindAddServerSession:
			w.sessions.OnServerAdded()
		case rpcproto.KindCreateNym:
			for _, id := range resp.NymIDs {
				if err := w.tables.AssociateNym(connectionID, id); err != nil {
					w.log.Warn().Err(err).Str("nym", id).Msg("associateNym (CreateNym) rejected")
				}
			}
		}
	}

	w.requestsHandled++

	// Step 7: serialize and return.
	respBytes, err := rpcproto.MarshalResponse(resp)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to encode RPCResponse, dropping reply")
		return
	}
	if _, err := w.socket.SendMessage([][]byte{respBytes}); err != nil {
		w.log.Error().Err(err).Msg("failed to send reply")
	}
}

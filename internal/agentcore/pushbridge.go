package agentcore

import (
	"time"

	"github.com/pebbe/zmq4"
	"github.com/rs/zerolog"

	"otagent/internal/assoc"
	"otagent/internal/logger"
	"otagent/internal/rpcproto"
)

// pushVersion/taskCompleteVersion are the fixed outgoing envelope
// versions this agent emits.
const (
	pushVersion         = 2
	taskCompleteVersion = 1
)

// PushBridge subscribes to the engine's push topic and translates engine
// events into frontend push messages, resolving the target connection via
// AssociationTables.
type PushBridge struct {
	socket   *zmq4.Socket
	tables   *assoc.Tables
	frontend *Frontend
	log      zerolog.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewPushBridge connects a SUB socket to endpoint and subscribes to
// everything published there.
func NewPushBridge(endpoint string, tables *assoc.Tables, frontend *Frontend) (*PushBridge, error) {
	socket, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, err
	}
	if err := socket.Connect(endpoint); err != nil {
		socket.Close()
		return nil, err
	}
	if err := socket.SetSubscribe(""); err != nil {
		socket.Close()
		return nil, err
	}
	return &PushBridge{
		socket:   socket,
		tables:   tables,
		frontend: frontend,
		log:      logger.New(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the push bridge's receive loop.
func (p *PushBridge) Start() {
	go p.loop()
}

func (p *PushBridge) loop() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		frames, err := p.socket.RecvMessageBytes(zmq4.DONTWAIT)
		if err != nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		p.handle(frames)
	}
}

// handle dispatches on frame count: a single-frame message is a
// task-completion push, a three-frame message is a nym event.
func (p *PushBridge) handle(frames [][]byte) {
	switch len(frames) {
	case 1:
		p.handleTaskComplete(frames[0])
	case 3:
		p.handleNymEvent(frames[0], frames[1], frames[2])
	default:
		p.log.Warn().Int("frames", len(frames)).Msg("malformed push, dropping")
	}
}

func (p *PushBridge) handleTaskComplete(raw []byte) {
	incoming, err := rpcproto.UnmarshalPush(raw)
	if err != nil || incoming.TaskComplete == nil {
		p.log.Warn().Err(err).Msg("malformed task-complete push, dropping")
		return
	}

	taskAssoc, ok := p.tables.TakeTask(incoming.TaskComplete.ID)
	if !ok {
		// Normal during steady-state: the agent hears pushes for tasks it
		// did not originate, or whose association already expired.
		p.log.Debug().Str("task_id", incoming.TaskComplete.ID).Msg("push for unknown task, dropping")
		return
	}

	out := &rpcproto.RPCPush{
		Type:    rpcproto.PushKindTask,
		Version: pushVersion,
		ID:      taskAssoc.Nym,
		TaskComplete: &rpcproto.TaskComplete{
			Version: taskCompleteVersion,
			ID:      incoming.TaskComplete.ID,
			Result:  incoming.TaskComplete.Result,
		},
	}
	outBytes, err := rpcproto.MarshalPush(out)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to encode outgoing task push")
		return
	}
	p.frontend.Push(taskAssoc.Connection, [][]byte{[]byte("PUSH"), outBytes})
}

func (p *PushBridge) handleNymEvent(nymID, payload, instance []byte) {
	conn, ok := p.tables.LookupNym(string(nymID))
	if !ok {
		p.log.Debug().Str("nym", string(nymID)).Msg("push for unknown nym, dropping")
		return
	}
	p.frontend.Push(conn, [][]byte{[]byte("PUSH"), payload, instance})
}

// Stop halts the receive loop and closes the socket.
func (p *PushBridge) Stop() {
	close(p.stop)
	<-p.done
	p.socket.Close()
}

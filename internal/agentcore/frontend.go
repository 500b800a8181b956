package agentcore

import (
	"fmt"
	"time"

	"github.com/pebbe/zmq4"
	"github.com/rs/zerolog"

	"otagent/internal/config"
	"otagent/internal/logger"
	"otagent/internal/zapauth"
)

// pushFrame is one pending outgoing push, queued by PushBridge and drained
// by Frontend's own loop goroutine.
type pushFrame struct {
	connectionID []byte
	body         [][]byte
}

// Frontend is the authenticated router socket bound to the agent's
// externally visible endpoints. It is the only goroutine allowed to
// Send/Recv on its ROUTER socket; that same goroutine also drives the
// InternalBroker's DEALER socket and drains the push channel, since all
// three must be serialized against that one socket's traffic.
type Frontend struct {
	socket *zmq4.Socket
	broker *InternalBroker
	pushCh chan pushFrame
	log    zerolog.Logger
	stop   chan struct{}
	done   chan struct{}
}

// NewFrontend creates the router socket, configures CurveZMQ server auth
// and the ZAP domain, and binds the local socket path plus every
// configured public endpoint. It does not start the loop; call Start.
func NewFrontend(socketPath string, endpoints []string, km config.KeyMaterial, broker *InternalBroker) (*Frontend, error) {
	socket, err := zmq4.NewSocket(zmq4.ROUTER)
	if err != nil {
		return nil, fmt.Errorf("agentcore: failed to create frontend socket: %w", err)
	}
	if err := socket.ServerAuthCurve("*", km.ServerPrivateKey); err != nil {
		socket.Close()
		return nil, fmt.Errorf("agentcore: failed to configure CurveZMQ server auth: %w", err)
	}
	if err := socket.SetZapDomain(zapauth.Domain); err != nil {
		socket.Close()
		return nil, fmt.Errorf("agentcore: failed to set ZAP domain: %w", err)
	}
	if err := socket.SetLinger(1000); err != nil {
		socket.Close()
		return nil, fmt.Errorf("agentcore: failed to set frontend linger: %w", err)
	}
	if err := socket.SetRouterMandatory(1); err != nil {
		socket.Close()
		return nil, fmt.Errorf("agentcore: failed to set router mandatory: %w", err)
	}

	if socketPath == "" {
		socket.Close()
		return nil, fmt.Errorf("agentcore: frontend socket path must be non-empty")
	}
	if err := socket.Bind(socketPath); err != nil {
		socket.Close()
		return nil, fmt.Errorf("agentcore: failed to bind %s: %w", socketPath, err)
	}
	for _, ep := range endpoints {
		if err := socket.Bind(ep); err != nil {
			socket.Close()
			return nil, fmt.Errorf("agentcore: failed to bind %s: %w", ep, err)
		}
	}

	return &Frontend{
		socket: socket,
		broker: broker,
		pushCh: make(chan pushFrame, 256),
		log:    logger.New(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Start launches the frontend's event loop goroutine.
func (f *Frontend) Start() {
	go f.loop()
}

// Push queues a push message for delivery to connectionID. body is the
// frame list after the routing header, e.g. ["PUSH", pushBytes, instance].
// Queueing is non-blocking up to the channel's buffer; callers observe no
// error because delivery failures are logged and otherwise ignored rather
// than propagated or retried.
func (f *Frontend) Push(connectionID string, body [][]byte) {
	select {
	case f.pushCh <- pushFrame{connectionID: []byte(connectionID), body: body}:
	default:
		f.log.Warn().Str("connection", connectionID).Msg("push channel full, dropping push")
	}
}

func (f *Frontend) loop() {
	defer close(f.done)
	for {
		select {
		case <-f.stop:
			return
		case push := <-f.pushCh:
			frames := append([][]byte{push.connectionID}, push.body...)
			if _, err := f.socket.SendMessage(frames); err != nil {
				f.log.Error().Err(err).Msg("failed to send push to client")
			}
			continue
		default:
		}

		f.pollBrokerReply()

		frames, err := f.socket.RecvMessageBytes(zmq4.DONTWAIT)
		if err != nil {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		f.handleClientRequest(frames)
	}
}

// handleClientRequest appends the routing identity to the body so the
// worker can associate it, then forwards through the envelope-preserving
// delimiter frame required by the REP workers.
func (f *Frontend) handleClientRequest(frames [][]byte) {
	if len(frames) < 2 {
		f.log.Warn().Int("frames", len(frames)).Msg("malformed client request, dropping")
		return
	}
	identity := frames[0]
	body := frames[1:]
	if len(body) == 0 || len(body[0]) == 0 {
		f.log.Warn().Msg("empty client request body, dropping")
		return
	}
	cmdBytes := body[0]

	forward := [][]byte{identity, {}, cmdBytes, identity}
	if err := f.broker.TrySend(forward); err != nil {
		f.log.Error().Err(err).Msg("failed to forward request to internal broker")
	}
}

// pollBrokerReply drains at most one pending worker reply per loop tick
// and relays it to the originating client, stripping the envelope
// delimiter frame so the client sees exactly one RPCResponse frame.
func (f *Frontend) pollBrokerReply() {
	frames, ok, err := f.broker.TryRecv()
	if err != nil {
		f.log.Error().Err(err).Msg("failed to receive from internal broker")
		return
	}
	if !ok {
		return
	}
	if len(frames) < 3 {
		f.log.Warn().Int("frames", len(frames)).Msg("malformed broker reply, dropping")
		return
	}
	identity, respBytes := frames[0], frames[len(frames)-1]
	if _, err := f.socket.SendMessage([][]byte{identity, respBytes}); err != nil {
		f.log.Error().Err(err).Msg("failed to send reply to client")
	}
}

// Stop halts the event loop and closes the socket.
func (f *Frontend) Stop() {
	close(f.stop)
	<-f.done
	f.socket.Close()
}

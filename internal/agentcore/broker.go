// Package agentcore wires the frontend router, internal broker, worker
// pool, push bridge, and session manager together.
package agentcore

import (
	"fmt"
	"syscall"

	"github.com/pebbe/zmq4"
	"github.com/rs/zerolog"

	"otagent/internal/logger"
)

// InternalBroker is a dealer connected to every worker endpoint. It does
// not parse payloads: it forwards frames from Frontend to a worker
// verbatim and forwards a worker's reply back, round-robining over
// workers with no client affinity.
type InternalBroker struct {
	socket *zmq4.Socket
	log    zerolog.Logger
}

// NewInternalBroker creates the dealer and connects it to every worker
// endpoint.
func NewInternalBroker(workerEndpoints []string) (*InternalBroker, error) {
	socket, err := zmq4.NewSocket(zmq4.DEALER)
	if err != nil {
		return nil, fmt.Errorf("agentcore: failed to create internal broker socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("agentcore: failed to set broker linger: %w", err)
	}
	for _, ep := range workerEndpoints {
		if err := socket.Connect(ep); err != nil {
			socket.Close()
			return nil, fmt.Errorf("agentcore: failed to connect broker to %s: %w", ep, err)
		}
	}
	return &InternalBroker{socket: socket, log: logger.New()}, nil
}

// TrySend forwards frames to a worker (round-robin); it does not block
// when the send queue is full, matching the non-blocking style of the
// event loop that drives it.
func (b *InternalBroker) TrySend(frames [][]byte) error {
	_, err := b.socket.SendMessage(frames, zmq4.DONTWAIT)
	return err
}

// TryRecv returns a worker's reply frames if one is pending, ok=false if
// none is available yet, or a non-nil error on a genuine socket failure
// (EAGAIN is not an error: it means nothing pending).
func (b *InternalBroker) TryRecv() (frames [][]byte, ok bool, err error) {
	msg, err := b.socket.RecvMessageBytes(zmq4.DONTWAIT)
	if err != nil {
		if zmq4.AsErrno(err) == zmq4.Errno(syscall.EAGAIN) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return msg, true, nil
}

// Close releases the broker socket.
func (b *InternalBroker) Close() error {
	return b.socket.Close()
}

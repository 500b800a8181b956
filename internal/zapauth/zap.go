// Package zapauth hand-implements a ZAP 1.0 authentication handler bound
// to the reserved inproc://zeromq.zap.01 endpoint. pebbe/zmq4 only exposes
// an allow-list style AuthCurveAdd/ServerAuthCurve("*", ...); this agent
// needs per-request custom status text, so the handler speaks the ZAP
// wire protocol directly, in the same request/reply ROUTER loop style
// used elsewhere in this codebase.
package zapauth

import (
	"fmt"
	"time"

	"github.com/pebbe/zmq4"
	"github.com/rs/zerolog"

	"otagent/internal/logger"
)

const (
	zapEndpoint = "inproc://zeromq.zap.01"

	// Domain is the literal ZAP domain this agent registers under.
	Domain = "otagent"

	statusSuccess     = "200"
	statusTempError   = "300"
	statusAuthFailure = "400"
	statusInternalErr = "500"

	mechanismCurve = "CURVE"
)

// Authenticator answers ZAP requests on inproc://zeromq.zap.01. It accepts
// only the CURVE mechanism with one specific client public key.
type Authenticator struct {
	socket         *zmq4.Socket
	expectedPubkey string // raw 32-byte decoded form
	log            zerolog.Logger
	stop           chan struct{}
	done           chan struct{}
}

// New creates (but does not start) an Authenticator that accepts only
// clientPubkeyZ85 (Z85-encoded, 40 characters).
func New(clientPubkeyZ85 string) (*Authenticator, error) {
	decoded := zmq4.Z85decode(clientPubkeyZ85)
	if len(decoded) != 32 {
		return nil, fmt.Errorf("zapauth: expected client key to decode to 32 bytes, got %d", len(decoded))
	}
	return &Authenticator{
		expectedPubkey: string(decoded),
		log:            logger.New(),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

// Start binds the ZAP handler socket and begins serving requests on its
// own goroutine. Must be called before the frontend's CurveZMQ socket is
// bound, since that bind triggers ZAP lookups immediately.
func (a *Authenticator) Start() error {
	socket, err := zmq4.NewSocket(zmq4.ROUTER)
	if err != nil {
		return fmt.Errorf("zapauth: failed to create socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return fmt.Errorf("zapauth: failed to set linger: %w", err)
	}
	if err := socket.Bind(zapEndpoint); err != nil {
		socket.Close()
		return fmt.Errorf("zapauth: failed to bind %s: %w", zapEndpoint, err)
	}
	a.socket = socket

	go a.loop()
	return nil
}

// Stop unblocks the serving goroutine and closes the socket.
func (a *Authenticator) Stop() {
	close(a.stop)
	<-a.done
	if a.socket != nil {
		a.socket.Close()
	}
}

func (a *Authenticator) loop() {
	defer close(a.done)
	for {
		select {
		case <-a.stop:
			return
		default:
		}

		frames, err := a.socket.RecvMessageBytes(zmq4.DONTWAIT)
		if err != nil {
			// EAGAIN when nothing pending; poll again shortly.
			time.Sleep(10 * time.Millisecond)
			continue
		}
		a.handle(frames)
	}
}

// A ROUTER socket prepends the sending DEALER's routing identity as
// frame 0. The ZAP 1.0 request itself is frames [version, requestId,
// domain, address, identity, mechanism, credentials...] starting at
// frame 1. Reply frames mirror the routing identity back at frame 0,
// followed by [version, requestId, statusCode, statusText, userId,
// metadata].
func (a *Authenticator) handle(frames [][]byte) {
	if len(frames) < 7 {
		a.log.Warn().Int("frames", len(frames)).Msg("malformed ZAP request")
		return
	}

	routingID := frames[0]
	version := frames[1]
	requestID := frames[2]
	mechanism := string(frames[6])

	var status, text string
	switch {
	case mechanism != mechanismCurve:
		status, text = statusAuthFailure, "Unsupported mechanism"
	case len(frames) < 8 || string(frames[7]) != a.expectedPubkey:
		status, text = statusAuthFailure, "Incorrect pubkey"
	default:
		status, text = statusSuccess, "OK"
	}

	reply := [][]byte{routingID, version, requestID, []byte(status), []byte(text), {}, {}}
	if _, err := a.socket.SendMessage(reply); err != nil {
		a.log.Error().Err(err).Msg("failed to send ZAP reply")
	}
}

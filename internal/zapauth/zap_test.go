package zapauth

import (
	"testing"
	"time"

	"github.com/pebbe/zmq4"
)

// dial connects a DEALER socket to the ZAP endpoint and exchanges one
// request, returning the reply frames after the echoed routing identity.
func dial(t *testing.T, requestID string, mechanism string, credential []byte) [][]byte {
	t.Helper()
	client, err := zmq4.NewSocket(zmq4.DEALER)
	if err != nil {
		t.Fatalf("NewSocket: %v", err)
	}
	defer client.Close()
	if err := client.Connect(zapEndpoint); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	frames := [][]byte{
		[]byte("1.0"),
		[]byte(requestID),
		[]byte("otagent"),
		[]byte("127.0.0.1"),
		[]byte("conn-1"),
		[]byte(mechanism),
	}
	if credential != nil {
		frames = append(frames, credential)
	}
	if _, err := client.SendMessage(frames); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if err := client.SetRcvtimeo(2 * time.Second); err != nil {
		t.Fatalf("SetRcvtimeo: %v", err)
	}
	reply, err := client.RecvMessageBytes(0)
	if err != nil {
		t.Fatalf("RecvMessageBytes: %v", err)
	}
	return reply
}

func startTestAuthenticator(t *testing.T, clientPubkeyZ85 string) *Authenticator {
	t.Helper()
	a, err := New(clientPubkeyZ85)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(a.Stop)
	return a
}

func TestZAPAcceptsCorrectPubkey(t *testing.T) {
	pub, _, err := zmq4.NewCurveKeypair()
	if err != nil {
		t.Fatalf("NewCurveKeypair: %v", err)
	}
	startTestAuthenticator(t, pub)

	reply := dial(t, "req-1", mechanismCurve, []byte(zmq4.Z85decode(pub)))
	if len(reply) < 4 || string(reply[2]) != statusSuccess || string(reply[3]) != "OK" {
		t.Fatalf("expected success reply, got %v", reply)
	}
}

func TestZAPRejectsWrongPubkey(t *testing.T) {
	pub, _, err := zmq4.NewCurveKeypair()
	if err != nil {
		t.Fatalf("NewCurveKeypair: %v", err)
	}
	otherPub, _, err := zmq4.NewCurveKeypair()
	if err != nil {
		t.Fatalf("NewCurveKeypair: %v", err)
	}
	startTestAuthenticator(t, pub)

	reply := dial(t, "req-2", mechanismCurve, []byte(zmq4.Z85decode(otherPub)))
	if len(reply) < 4 || string(reply[2]) != statusAuthFailure || string(reply[3]) != "Incorrect pubkey" {
		t.Fatalf("expected incorrect-pubkey failure, got %v", reply)
	}
}

func TestZAPRejectsUnsupportedMechanism(t *testing.T) {
	pub, _, err := zmq4.NewCurveKeypair()
	if err != nil {
		t.Fatalf("NewCurveKeypair: %v", err)
	}
	startTestAuthenticator(t, pub)

	reply := dial(t, "req-3", "PLAIN", []byte("whatever"))
	if len(reply) < 4 || string(reply[2]) != statusAuthFailure || string(reply[3]) != "Unsupported mechanism" {
		t.Fatalf("expected unsupported-mechanism failure, got %v", reply)
	}
}

package engine

import (
	"sync"

	"otagent/internal/rpcproto"
)

// MockEngine is a hand-rolled in-memory stand-in for Engine, used by
// agentcore's tests the way MockRequestHandler stands in for a real
// handler in the hermes tests it is modeled on.
type MockEngine struct {
	mu           sync.Mutex
	clients      map[int]*mockClientSession
	pushEndpoint string
	Handler      func(cmd *rpcproto.RPCCommand) (*rpcproto.RPCResponse, error)
}

func NewMockEngine(pushEndpoint string) *MockEngine {
	return &MockEngine{
		clients:      make(map[int]*mockClientSession),
		pushEndpoint: pushEndpoint,
	}
}

type mockClientSession struct {
	owners map[string]string // accountID -> nymID
}

func (m *mockClientSession) RefreshOTX() error { return nil }

func (m *mockClientSession) AccountOwner(accountID string) (string, bool) {
	nym, ok := m.owners[accountID]
	return nym, ok
}

// SetAccountOwner lets a test seed the owner of an account for a given
// client index.
func (m *MockEngine) SetAccountOwner(index int, accountID, nymID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[index]
	if !ok {
		c = &mockClientSession{owners: make(map[string]string)}
		m.clients[index] = c
	}
	c.owners[accountID] = nymID
}

func (m *MockEngine) StartClient(args map[string]string, index int) (ClientSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[index]
	if !ok {
		c = &mockClientSession{owners: make(map[string]string)}
		m.clients[index] = c
	}
	return c, nil
}

func (m *MockEngine) StartServer(args map[string]string, index int, notify bool) error {
	return nil
}

func (m *MockEngine) Client(index int) ClientSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[index]
	if !ok {
		return nil
	}
	return c
}

func (m *MockEngine) RPC(cmd *rpcproto.RPCCommand) (*rpcproto.RPCResponse, error) {
	if m.Handler != nil {
		return m.Handler(cmd)
	}
	return &rpcproto.RPCResponse{Status: []rpcproto.StatusCode{rpcproto.StatusSuccess}}, nil
}

func (m *MockEngine) PushEndpoint() string { return m.pushEndpoint }

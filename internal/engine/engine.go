// Package engine names the external collaborator this agent drives: the
// embedded financial-transaction engine. Only the operations the core
// invokes are modeled; everything else about the engine is out of scope.
package engine

import "otagent/internal/rpcproto"

// ClientSession is the per-client-index handle returned by
// Engine.StartClient and Engine.Client.
type ClientSession interface {
	// RefreshOTX performs one OTX refresh cycle (OTX().Refresh()).
	RefreshOTX() error
	// AccountOwner resolves the nym owning accountID
	// (Storage().AccountOwner).
	AccountOwner(accountID string) (nymID string, ok bool)
}

// Engine is the full surface the agent depends on.
type Engine interface {
	// StartClient starts a new client session at index and returns it.
	StartClient(args map[string]string, index int) (ClientSession, error)
	// StartServer starts a new server session at index.
	StartServer(args map[string]string, index int, notify bool) error
	// Client returns the previously started client session at index.
	Client(index int) ClientSession
	// RPC dispatches one command and returns its response.
	RPC(cmd *rpcproto.RPCCommand) (*rpcproto.RPCResponse, error)
	// PushEndpoint returns the inproc address the engine publishes push
	// events on (ZMQ().BuildEndpoint("rpc/push", -1, 1)).
	PushEndpoint() string
}

package rpcproto

import "fmt"

// AccountOwnerLookup resolves the nym that owns an account, as exposed by
// the engine's per-client storage (Client(index).Storage().AccountOwner).
type AccountOwnerLookup func(clientIndex int, accountID string) (nymID string, ok bool)

// ClientIndex derives the engine client index from a session number.
// Even sessions are clients in the engine's numbering convention; odd
// sessions are a caller error and panic rather than silently misroute.
func ClientIndex(session int) int {
	if session%2 != 0 {
		panic(fmt.Sprintf("rpcproto: session %d is odd, only even sessions are clients", session))
	}
	return session / 2
}

// TaskNym computes the nym that owns the asynchronous outcome of cmd/resp.
// It returns ok=false when no association should be recorded.
func TaskNym(cmd *RPCCommand, resp *RPCResponse, lookup AccountOwnerLookup) (nym string, ok bool) {
	switch cmd.Kind {
	case KindRegisterNym, KindIssueUnitDefinition, KindCreateAccount, KindCreateCompatibleAccount:
		if cmd.Owner == "" {
			return "", false
		}
		return cmd.Owner, true

	case KindSendPayment:
		if !resp.HasQueuedTask() || cmd.SendPayment == nil {
			return "", false
		}
		idx := ClientIndex(cmd.Session)
		return lookup(idx, cmd.SendPayment.SourceAccount)

	case KindAcceptPendingPayments:
		if !resp.HasQueuedTask() || len(cmd.AcceptPending) == 0 {
			return "", false
		}
		idx := ClientIndex(cmd.Session)
		return lookup(idx, cmd.AcceptPending[0].DestinationAccount)

	default:
		return "", false
	}
}

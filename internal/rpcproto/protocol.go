// Package rpcproto defines the typed envelopes exchanged with the engine
// and classifies them for association bookkeeping. The payloads are
// treated as opaque blobs by every other package; only the fields this
// core needs to route and associate are modeled.
package rpcproto

import "encoding/json"

// CommandKind discriminates an RPCCommand without decoding its full body.
type CommandKind string

const (
	KindRegisterNym             CommandKind = "RegisterNym"
	KindIssueUnitDefinition     CommandKind = "IssueUnitDefinition"
	KindCreateAccount           CommandKind = "CreateAccount"
	KindCreateCompatibleAccount CommandKind = "CreateCompatibleAccount"
	KindSendPayment             CommandKind = "SendPayment"
	KindAcceptPendingPayments   CommandKind = "AcceptPendingPayments"
	KindAddClientSession        CommandKind = "AddClientSession"
	KindAddServerSession        CommandKind = "AddServerSession"
	KindCreateNym               CommandKind = "CreateNym"
)

// StatusCode mirrors the handful of engine response statuses this core
// inspects. Anything else is passed through verbatim.
type StatusCode string

const (
	StatusSuccess StatusCode = "SUCCESS"
	StatusQueued  StatusCode = "QUEUED"
	StatusError   StatusCode = "ERROR"
)

// RPCCommand is the request body a client sends and a worker forwards to
// the engine. Session identifies which engine client/server issued it;
// AssociateNym lists nyms the caller asserts ownership of up front.
type RPCCommand struct {
	Kind          CommandKind     `json:"kind"`
	Session       int             `json:"session"`
	Owner         string          `json:"owner,omitempty"`
	AssociateNym  []string        `json:"associateNym,omitempty"`
	SendPayment   *SendPaymentArg `json:"sendPayment,omitempty"`
	AcceptPending []AcceptPending `json:"acceptPendingPayment,omitempty"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

// SendPaymentArg carries the one field the classifier needs.
type SendPaymentArg struct {
	SourceAccount string `json:"sourceAccount"`
}

// AcceptPending carries the one field the classifier needs per entry.
type AcceptPending struct {
	DestinationAccount string `json:"destinationAccount"`
}

// TaskEntry is one queued-task descriptor in an RPCResponse.
type TaskEntry struct {
	ID string `json:"id"`
}

// RPCResponse is what the engine returns for an RPCCommand.
type RPCResponse struct {
	Status []StatusCode    `json:"status"`
	Task   []TaskEntry     `json:"task,omitempty"`
	NymIDs []string        `json:"nymIds,omitempty"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// HasQueuedTask reports whether the response carries at least one QUEUED
// status and at least one task entry.
func (r *RPCResponse) HasQueuedTask() bool {
	if len(r.Task) == 0 {
		return false
	}
	for _, s := range r.Status {
		if s == StatusQueued {
			return true
		}
	}
	return false
}

// FirstStatusSuccess reports whether status[0] is SUCCESS, as used by the
// AddClientSession/AddServerSession/CreateNym success checks.
func (r *RPCResponse) FirstStatusSuccess() bool {
	return len(r.Status) > 0 && r.Status[0] == StatusSuccess
}

// PushKind discriminates an RPCPush.
type PushKind string

const (
	PushKindTask PushKind = "TASK"
)

// TaskComplete is the payload of a task-completion push.
type TaskComplete struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Result  bool   `json:"result"`
}

// RPCPush is the envelope sent back to a client on the push path.
type RPCPush struct {
	Type         PushKind      `json:"type"`
	Version      int           `json:"version"`
	ID           string        `json:"id"`
	TaskComplete *TaskComplete `json:"taskComplete,omitempty"`
}

// Marshal/Unmarshal helpers keep the JSON wire format centralized; a real
// deployment could swap this for a binary codec without touching callers.

func MarshalCommand(c *RPCCommand) ([]byte, error) { return json.Marshal(c) }
func UnmarshalCommand(b []byte) (*RPCCommand, error) {
	var c RPCCommand
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func MarshalResponse(r *RPCResponse) ([]byte, error) { return json.Marshal(r) }
func UnmarshalResponse(b []byte) (*RPCResponse, error) {
	var r RPCResponse
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func MarshalPush(p *RPCPush) ([]byte, error) { return json.Marshal(p) }
func UnmarshalPush(b []byte) (*RPCPush, error) {
	var p RPCPush
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

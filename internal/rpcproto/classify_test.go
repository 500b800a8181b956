package rpcproto

import "testing"

func TestClientIndexEven(t *testing.T) {
	if got := ClientIndex(4); got != 2 {
		t.Fatalf("expected index 2, got %d", got)
	}
}

func TestClientIndexPanicsOnOddSession(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for odd session number")
		}
	}()
	ClientIndex(3)
}

func TestTaskNymOwnerCommands(t *testing.T) {
	for _, kind := range []CommandKind{KindRegisterNym, KindIssueUnitDefinition, KindCreateAccount, KindCreateCompatibleAccount} {
		cmd := &RPCCommand{Kind: kind, Owner: "NymOwner"}
		resp := &RPCResponse{Status: []StatusCode{StatusSuccess}}
		nym, ok := TaskNym(cmd, resp, nil)
		if !ok || nym != "NymOwner" {
			t.Fatalf("%s: expected (NymOwner, true), got (%q, %v)", kind, nym, ok)
		}
	}
}

func TestTaskNymSendPaymentResolvesViaAccountOwner(t *testing.T) {
	cmd := &RPCCommand{
		Kind:        KindSendPayment,
		Session:     4,
		SendPayment: &SendPaymentArg{SourceAccount: "A"},
	}
	resp := &RPCResponse{
		Status: []StatusCode{StatusQueued},
		Task:   []TaskEntry{{ID: "T1"}},
	}
	lookup := func(idx int, accountID string) (string, bool) {
		if idx == 2 && accountID == "A" {
			return "NymX", true
		}
		return "", false
	}
	nym, ok := TaskNym(cmd, resp, lookup)
	if !ok || nym != "NymX" {
		t.Fatalf("expected (NymX, true), got (%q, %v)", nym, ok)
	}
}

func TestTaskNymSendPaymentWithoutQueuedStatus(t *testing.T) {
	cmd := &RPCCommand{Kind: KindSendPayment, Session: 4, SendPayment: &SendPaymentArg{SourceAccount: "A"}}
	resp := &RPCResponse{Status: []StatusCode{StatusSuccess}}
	if _, ok := TaskNym(cmd, resp, func(int, string) (string, bool) { return "NymX", true }); ok {
		t.Fatal("expected no association when response is not queued")
	}
}

func TestTaskNymAcceptPendingPayments(t *testing.T) {
	cmd := &RPCCommand{
		Kind:          KindAcceptPendingPayments,
		Session:       2,
		AcceptPending: []AcceptPending{{DestinationAccount: "B"}},
	}
	resp := &RPCResponse{Status: []StatusCode{StatusQueued}, Task: []TaskEntry{{ID: "T2"}}}
	lookup := func(idx int, accountID string) (string, bool) {
		if idx == 1 && accountID == "B" {
			return "NymY", true
		}
		return "", false
	}
	nym, ok := TaskNym(cmd, resp, lookup)
	if !ok || nym != "NymY" {
		t.Fatalf("expected (NymY, true), got (%q, %v)", nym, ok)
	}
}

func TestTaskNymOtherKindsHaveNoAssociation(t *testing.T) {
	cmd := &RPCCommand{Kind: "Ping"}
	resp := &RPCResponse{Status: []StatusCode{StatusSuccess}}
	if _, ok := TaskNym(cmd, resp, nil); ok {
		t.Fatal("expected no association for an unrecognized command kind")
	}
}

func TestHasQueuedTask(t *testing.T) {
	r := &RPCResponse{Status: []StatusCode{StatusQueued}, Task: []TaskEntry{{ID: "T1"}}}
	if !r.HasQueuedTask() {
		t.Fatal("expected HasQueuedTask true")
	}
	empty := &RPCResponse{Status: []StatusCode{StatusQueued}}
	if empty.HasQueuedTask() {
		t.Fatal("expected HasQueuedTask false without a task entry")
	}
}

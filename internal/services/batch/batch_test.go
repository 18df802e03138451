package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/j-veylop/proxydeck-tui/internal/rpc"
)

type fakeRemote struct {
	rpc.RemoteService

	calls  []string
	failOn string
}

func (f *fakeRemote) SetAccountEnabled(_ context.Context, accountID string, _ bool) error {
	f.calls = append(f.calls, accountID)
	if accountID == f.failOn {
		return errors.New("backend rejected")
	}
	return nil
}

func TestExecutor_SetEnabled(t *testing.T) {
	remote := &fakeRemote{}
	e := New(remote)

	result := e.SetEnabled(context.Background(), []string{"a", "b", "c"}, true)

	if !result.Succeeded() {
		t.Fatalf("unexpected failure: %v", result.Err)
	}
	if len(result.Applied) != 3 {
		t.Errorf("Applied = %v, want 3 ids", result.Applied)
	}
	if len(remote.calls) != 3 {
		t.Errorf("expected 3 backend calls, got %d", len(remote.calls))
	}
	// Selection order is the call order.
	if remote.calls[0] != "a" || remote.calls[1] != "b" || remote.calls[2] != "c" {
		t.Errorf("call order = %v", remote.calls)
	}
}

func TestExecutor_StopsAtFirstFailure(t *testing.T) {
	remote := &fakeRemote{failOn: "b"}
	e := New(remote)

	result := e.SetEnabled(context.Background(), []string{"a", "b", "c"}, false)

	if result.Succeeded() {
		t.Fatal("expected failure")
	}
	if result.FailedID != "b" {
		t.Errorf("FailedID = %s, want b", result.FailedID)
	}
	if len(result.Applied) != 1 || result.Applied[0] != "a" {
		t.Errorf("Applied = %v, want [a]", result.Applied)
	}
	// "c" must never be attempted after the failure.
	if len(remote.calls) != 2 {
		t.Errorf("calls = %v, want [a b]", remote.calls)
	}
}

func TestExecutor_EmptySelection(t *testing.T) {
	remote := &fakeRemote{}
	e := New(remote)

	result := e.SetEnabled(context.Background(), nil, true)
	if !result.Succeeded() {
		t.Errorf("empty selection should succeed trivially: %v", result.Err)
	}
	if len(remote.calls) != 0 {
		t.Errorf("empty selection should make no calls, got %v", remote.calls)
	}
}

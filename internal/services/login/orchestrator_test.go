package login

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/j-veylop/proxydeck-tui/internal/models"
	"github.com/j-veylop/proxydeck-tui/internal/rpc"
)

type fakeRemote struct {
	rpc.RemoteService

	mu            sync.Mutex
	serverRunning bool
	serverStarted bool
	authURL       string
	authErr       error
	authCalls     atomic.Int32
	projectErr    error
	projectCalls  atomic.Int32
	lastProjectID string
	lastAccountID string
}

func (f *fakeRemote) GetServerStatus(_ context.Context) (models.ServerStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.ServerStatus{Running: f.serverRunning}, nil
}

func (f *fakeRemote) StartServer(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serverStarted = true
	f.serverRunning = true
	return nil
}

func (f *fakeRemote) StartOAuthLogin(_ context.Context, _ string) (string, error) {
	f.authCalls.Add(1)
	return f.authURL, f.authErr
}

func (f *fakeRemote) SetGeminiProjectID(_ context.Context, accountID, projectID string) error {
	f.projectCalls.Add(1)
	f.mu.Lock()
	f.lastAccountID = accountID
	f.lastProjectID = projectID
	f.mu.Unlock()
	return f.projectErr
}

// fakeRegistry serves a scripted sequence of account lists, one per Refresh.
// An installed gate makes Refresh announce entry and wait to be released, so
// tests can act while a re-fetch is in flight.
type fakeRegistry struct {
	mu             sync.Mutex
	sequence       [][]models.Account
	current        []models.Account
	refreshEntered chan struct{}
	refreshRelease chan struct{}
}

func (f *fakeRegistry) gate(entered, release chan struct{}) {
	f.mu.Lock()
	f.refreshEntered = entered
	f.refreshRelease = release
	f.mu.Unlock()
}

func (f *fakeRegistry) Refresh(_ context.Context) ([]models.Account, error) {
	f.mu.Lock()
	entered, release := f.refreshEntered, f.refreshRelease
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sequence) > 0 {
		f.current = f.sequence[0]
		f.sequence = f.sequence[1:]
	}
	out := make([]models.Account, len(f.current))
	copy(out, f.current)
	return out, nil
}

func (f *fakeRegistry) List() []models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Account, len(f.current))
	copy(out, f.current)
	return out
}

// newTestOrchestrator builds an orchestrator with tight timings and a no-op
// browser opener.
func newTestOrchestrator(remote *fakeRemote, reg *fakeRegistry) *Orchestrator {
	o := New(remote, reg)
	o.openURL = func(string) error { return nil }
	o.settleDelay = time.Millisecond
	o.pollInterval = 5 * time.Millisecond
	o.pollTimeout = 200 * time.Millisecond
	return o
}

// waitForEvent drains the channel until an event of the wanted type arrives.
func waitForEvent(t *testing.T, o *Orchestrator, want EventType) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-o.Events():
			if event.Type == want {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event type %d", want)
		}
	}
}

func TestStartLogin_SecondLoginRejected(t *testing.T) {
	remote := &fakeRemote{serverRunning: true, authURL: "https://auth.example.com"}
	reg := &fakeRegistry{}
	o := newTestOrchestrator(remote, reg)
	defer o.CancelProjectPrompt()

	if err := o.StartLogin(context.Background(), "openai"); err != nil {
		t.Fatalf("first login: %v", err)
	}

	calls := remote.authCalls.Load()
	err := o.StartLogin(context.Background(), "anthropic")
	if !errors.Is(err, ErrLoginInFlight) {
		t.Fatalf("second login err = %v, want ErrLoginInFlight", err)
	}
	// The rejection happens before any backend work.
	if remote.authCalls.Load() != calls {
		t.Error("rejected login must not contact the backend")
	}
}

func TestStartLogin_PollDetectsNewAccount(t *testing.T) {
	remote := &fakeRemote{serverRunning: true, authURL: "https://auth.example.com"}
	reg := &fakeRegistry{sequence: [][]models.Account{
		{{ID: "a", Provider: "openai"}}, // baseline
		{{ID: "a", Provider: "openai"}}, // first poll, nothing yet
		{{ID: "a", Provider: "openai"}, {ID: "b", Provider: "openai"}},
	}}
	o := newTestOrchestrator(remote, reg)

	if err := o.StartLogin(context.Background(), "openai"); err != nil {
		t.Fatalf("StartLogin: %v", err)
	}
	if o.Pending() == nil {
		t.Fatal("pending marker should be set while polling")
	}

	event := waitForEvent(t, o, EventCompleted)
	if len(event.NewAccounts) != 1 || event.NewAccounts[0].ID != "b" {
		t.Errorf("NewAccounts = %v, want [b]", event.NewAccounts)
	}
	if o.Pending() != nil {
		t.Error("pending marker should clear on completion")
	}
}

func TestStartLogin_PollTimeout(t *testing.T) {
	remote := &fakeRemote{serverRunning: true, authURL: "https://auth.example.com"}
	reg := &fakeRegistry{current: []models.Account{{ID: "a", Provider: "openai"}}}
	o := newTestOrchestrator(remote, reg)
	o.pollTimeout = 30 * time.Millisecond

	if err := o.StartLogin(context.Background(), "openai"); err != nil {
		t.Fatalf("StartLogin: %v", err)
	}

	waitForEvent(t, o, EventTimedOut)
	if o.Pending() != nil {
		t.Error("pending marker should clear on timeout")
	}

	// The machine is reusable after a timeout.
	if err := o.StartLogin(context.Background(), "openai"); err != nil {
		t.Errorf("login after timeout: %v", err)
	}
	o.CancelProjectPrompt()
}

func TestStartLogin_SynchronousToken(t *testing.T) {
	// A non-URL return means the flow completed inside the backend.
	remote := &fakeRemote{serverRunning: true, authURL: "done"}
	reg := &fakeRegistry{sequence: [][]models.Account{
		{},                              // baseline
		{{ID: "n", Provider: "openai"}}, // immediate re-fetch
	}}
	o := newTestOrchestrator(remote, reg)

	if err := o.StartLogin(context.Background(), "openai"); err != nil {
		t.Fatalf("StartLogin: %v", err)
	}

	event := waitForEvent(t, o, EventCompleted)
	if len(event.NewAccounts) != 1 || event.NewAccounts[0].ID != "n" {
		t.Errorf("NewAccounts = %v", event.NewAccounts)
	}
	if o.Pending() != nil {
		t.Error("synchronous completion should clear pending")
	}
}

func TestStartLogin_EmptyAuthURLFails(t *testing.T) {
	remote := &fakeRemote{serverRunning: true, authURL: ""}
	reg := &fakeRegistry{}
	o := newTestOrchestrator(remote, reg)

	if err := o.StartLogin(context.Background(), "openai"); err == nil {
		t.Fatal("empty auth URL should fail")
	}
	waitForEvent(t, o, EventFailed)
	if o.Pending() != nil {
		t.Error("failure should reset to idle")
	}
}

func TestStartLogin_StartsStoppedServer(t *testing.T) {
	remote := &fakeRemote{serverRunning: false, authURL: "done"}
	reg := &fakeRegistry{}
	o := newTestOrchestrator(remote, reg)

	if err := o.StartLogin(context.Background(), "openai"); err != nil {
		t.Fatalf("StartLogin: %v", err)
	}
	if !remote.serverStarted {
		t.Error("a stopped server should be started before the auth request")
	}
}

func TestFinish_GooglePromptTargetsNewAccount(t *testing.T) {
	remote := &fakeRemote{serverRunning: true, authURL: "done"}
	reg := &fakeRegistry{sequence: [][]models.Account{
		{{ID: "old", Provider: "google"}},
		{{ID: "old", Provider: "google"}, {ID: "new", Provider: "gemini"}},
	}}
	o := newTestOrchestrator(remote, reg)

	if err := o.StartLogin(context.Background(), "google"); err != nil {
		t.Fatalf("StartLogin: %v", err)
	}

	event := waitForEvent(t, o, EventProjectPromptOpened)
	if event.AccountID != "new" {
		t.Errorf("prompt targets %s, want the new account", event.AccountID)
	}
	if prompt := o.Prompt(); prompt == nil || prompt.AccountID != "new" {
		t.Errorf("Prompt() = %v", prompt)
	}
}

func TestFinish_GooglePromptFallsBackToKnownAccount(t *testing.T) {
	// No new account appeared (e.g. re-login of an existing credential); the
	// prompt falls back to the most recently known Google-family account.
	remote := &fakeRemote{serverRunning: true, authURL: "done"}
	reg := &fakeRegistry{sequence: [][]models.Account{
		{{ID: "g1", Provider: "google"}, {ID: "g2", Provider: "google"}},
		{{ID: "g1", Provider: "google"}, {ID: "g2", Provider: "google"}},
	}}
	o := newTestOrchestrator(remote, reg)

	if err := o.StartLogin(context.Background(), "google"); err != nil {
		t.Fatalf("StartLogin: %v", err)
	}

	event := waitForEvent(t, o, EventProjectPromptOpened)
	if event.AccountID != "g2" {
		t.Errorf("prompt targets %s, want the most recent known account g2", event.AccountID)
	}
}

func TestFinish_NonGoogleOpensNoPrompt(t *testing.T) {
	remote := &fakeRemote{serverRunning: true, authURL: "done"}
	reg := &fakeRegistry{sequence: [][]models.Account{
		{},
		{{ID: "n", Provider: "openai"}},
	}}
	o := newTestOrchestrator(remote, reg)

	if err := o.StartLogin(context.Background(), "openai"); err != nil {
		t.Fatalf("StartLogin: %v", err)
	}
	waitForEvent(t, o, EventCompleted)
	if o.Prompt() != nil {
		t.Error("non-Google logins must not open a project prompt")
	}
}

func TestConfirmProjectID_WhitespaceKeepsPromptOpen(t *testing.T) {
	remote := &fakeRemote{}
	o := newTestOrchestrator(remote, &fakeRegistry{})
	o.prompt = &ProjectPrompt{AccountID: "g"}

	err := o.ConfirmProjectID(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyProjectID) {
		t.Fatalf("err = %v, want ErrEmptyProjectID", err)
	}
	if o.Prompt() == nil {
		t.Error("whitespace input must leave the prompt open")
	}
	if remote.projectCalls.Load() != 0 {
		t.Error("whitespace input must not hit the backend")
	}
}

func TestConfirmProjectID_SuccessClosesPrompt(t *testing.T) {
	remote := &fakeRemote{}
	o := newTestOrchestrator(remote, &fakeRegistry{})
	o.prompt = &ProjectPrompt{AccountID: "g"}

	if err := o.ConfirmProjectID(context.Background(), "  my-project  "); err != nil {
		t.Fatalf("ConfirmProjectID: %v", err)
	}
	if o.Prompt() != nil {
		t.Error("prompt should close on success")
	}
	if remote.lastProjectID != "my-project" {
		t.Errorf("project id = %q, want trimmed input", remote.lastProjectID)
	}
	if remote.lastAccountID != "g" {
		t.Errorf("account id = %q, want g", remote.lastAccountID)
	}
	waitForEvent(t, o, EventProjectIDSaved)
}

func TestConfirmProjectID_FailureClosesPrompt(t *testing.T) {
	remote := &fakeRemote{projectErr: errors.New("backend rejected")}
	o := newTestOrchestrator(remote, &fakeRegistry{})
	o.prompt = &ProjectPrompt{AccountID: "g"}

	if err := o.ConfirmProjectID(context.Background(), "p"); err == nil {
		t.Fatal("expected error")
	}
	// Success or failure, the prompt closes; only whitespace keeps it open.
	if o.Prompt() != nil {
		t.Error("prompt should close on failure")
	}
	waitForEvent(t, o, EventFailed)
}

func TestConfirmProjectID_NoPromptOpen(t *testing.T) {
	o := newTestOrchestrator(&fakeRemote{}, &fakeRegistry{})
	if err := o.ConfirmProjectID(context.Background(), "p"); err == nil {
		t.Error("confirming without an open prompt should fail")
	}
}

func TestCancelProjectPrompt_Idempotent(t *testing.T) {
	o := newTestOrchestrator(&fakeRemote{}, &fakeRegistry{})
	o.prompt = &ProjectPrompt{AccountID: "g"}
	o.pending = &PendingLogin{Provider: "google"}

	o.CancelProjectPrompt()
	if o.Prompt() != nil || o.Pending() != nil {
		t.Error("cancel should clear both prompt and pending")
	}

	// Second cancel is a no-op.
	o.CancelProjectPrompt()
}

func TestCancelProjectPrompt_LatePollResolvesNothing(t *testing.T) {
	remote := &fakeRemote{serverRunning: true, authURL: "https://auth.example.com"}
	reg := &fakeRegistry{current: []models.Account{{ID: "a", Provider: "google"}}}
	o := newTestOrchestrator(remote, reg)
	o.pollTimeout = 10 * time.Second

	if err := o.StartLogin(context.Background(), "google"); err != nil {
		t.Fatalf("StartLogin: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	reg.gate(entered, release)

	// A poll tick is now inside the registry re-fetch.
	<-entered

	o.CancelProjectPrompt()

	// The re-fetch completes with a new Google account only after the cancel.
	reg.mu.Lock()
	reg.current = []models.Account{
		{ID: "a", Provider: "google"},
		{ID: "g1", Provider: "gemini"},
	}
	reg.refreshEntered, reg.refreshRelease = nil, nil
	reg.mu.Unlock()
	close(release)

	deadline := time.After(100 * time.Millisecond)
	for {
		select {
		case event := <-o.Events():
			if event.Type == EventCompleted || event.Type == EventProjectPromptOpened {
				t.Fatalf("late poll resolved a cancelled login: event type %d", event.Type)
			}
		case <-deadline:
			if o.Prompt() != nil {
				t.Fatal("late poll opened a project prompt after cancel")
			}
			return
		}
	}
}

func TestCancelProjectPrompt_StopsPolling(t *testing.T) {
	remote := &fakeRemote{serverRunning: true, authURL: "https://auth.example.com"}
	reg := &fakeRegistry{current: []models.Account{{ID: "a", Provider: "openai"}}}
	o := newTestOrchestrator(remote, reg)
	o.pollTimeout = 10 * time.Second

	if err := o.StartLogin(context.Background(), "openai"); err != nil {
		t.Fatalf("StartLogin: %v", err)
	}

	o.CancelProjectPrompt()
	if o.Pending() != nil {
		t.Error("cancel should abandon the in-flight login")
	}

	// A new login can start immediately.
	if err := o.StartLogin(context.Background(), "openai"); err != nil {
		t.Errorf("login after cancel: %v", err)
	}
	o.CancelProjectPrompt()
}

// Package login drives the OAuth handoff state machine: browser handoff,
// account-diff polling, and the Google project-id follow-up prompt.
package login

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/j-veylop/proxydeck-tui/internal/logger"
	"github.com/j-veylop/proxydeck-tui/internal/models"
	"github.com/j-veylop/proxydeck-tui/internal/rpc"
	"github.com/j-veylop/proxydeck-tui/internal/services/registry"
)

// State identifies where the login flow currently is.
type State int

const (
	// StateIdle means no login is in flight.
	StateIdle State = iota
	// StateStarting means a login was requested and is being validated.
	StateStarting
	// StateServerEnsuring means the proxy server is being started if needed.
	StateServerEnsuring
	// StateAuthRequested means the auth URL is being obtained.
	StateAuthRequested
	// StatePolling means the browser was opened and account diffs are polled.
	StatePolling
)

// EventType classifies orchestrator events.
type EventType int

const (
	// EventStateChanged reports a state machine transition.
	EventStateChanged EventType = iota
	// EventCompleted reports a finished login, with any newly appeared accounts.
	EventCompleted
	// EventTimedOut reports the polling ceiling being hit without a new account.
	EventTimedOut
	// EventFailed reports a login error; the machine has reset to idle.
	EventFailed
	// EventProjectPromptOpened asks the UI to collect a Google project id.
	EventProjectPromptOpened
	// EventProjectIDSaved reports a successful project-id submission.
	EventProjectIDSaved
)

// Event is emitted on every observable transition of the login flow.
type Event struct {
	Type        EventType
	State       State
	Provider    string
	AccountID   string
	NewAccounts []models.Account
	Err         error
}

// PendingLogin marks the single login allowed per process.
type PendingLogin struct {
	Provider  string
	StartedAt time.Time
}

// ProjectPrompt marks the single open project-id prompt.
type ProjectPrompt struct {
	AccountID string
}

// ErrLoginInFlight is returned when a login is started while one is pending.
var ErrLoginInFlight = errors.New("a login is already in progress")

// ErrEmptyProjectID is returned for blank project-id input; the prompt stays open.
var ErrEmptyProjectID = errors.New("project id must not be empty")

// AccountLister is the registry surface the orchestrator needs.
type AccountLister interface {
	Refresh(ctx context.Context) ([]models.Account, error)
	List() []models.Account
}

// Orchestrator owns the pending-login and pending-prompt singletons and
// drives the OAuth flow against the backend.
type Orchestrator struct {
	mu      sync.Mutex
	pending *PendingLogin
	prompt  *ProjectPrompt

	remote   rpc.RemoteService
	registry AccountLister
	openURL  func(url string) error

	eventChan chan Event
	pollStop  chan struct{}

	// Flow timing, overridable in tests.
	settleDelay  time.Duration
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// New creates an orchestrator with the production flow timings.
func New(remote rpc.RemoteService, reg AccountLister) *Orchestrator {
	return &Orchestrator{
		remote:       remote,
		registry:     reg,
		openURL:      OpenBrowser,
		eventChan:    make(chan Event, 100),
		settleDelay:  500 * time.Millisecond,
		pollInterval: 2 * time.Second,
		pollTimeout:  60 * time.Second,
	}
}

// Events returns the orchestrator event channel.
func (o *Orchestrator) Events() <-chan Event {
	return o.eventChan
}

// Pending returns the in-flight login marker, or nil.
func (o *Orchestrator) Pending() *PendingLogin {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return nil
	}
	p := *o.pending
	return &p
}

// Prompt returns the open project-id prompt, or nil.
func (o *Orchestrator) Prompt() *ProjectPrompt {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.prompt == nil {
		return nil
	}
	p := *o.prompt
	return &p
}

// StartLogin runs the login flow for a provider. It returns ErrLoginInFlight
// without contacting the backend when a login is already pending. All backend
// errors reset the machine to idle and are reported via EventFailed as well
// as the returned error.
func (o *Orchestrator) StartLogin(ctx context.Context, provider string) error {
	o.mu.Lock()
	if o.pending != nil {
		o.mu.Unlock()
		return ErrLoginInFlight
	}
	o.pending = &PendingLogin{Provider: provider, StartedAt: time.Now()}
	o.mu.Unlock()

	o.sendEvent(Event{Type: EventStateChanged, State: StateStarting, Provider: provider})

	baseline, err := o.registry.Refresh(ctx)
	if err != nil {
		return o.fail(provider, err)
	}

	if err := o.ensureServer(ctx, provider); err != nil {
		return o.fail(provider, err)
	}

	o.sendEvent(Event{Type: EventStateChanged, State: StateAuthRequested, Provider: provider})
	authURL, err := o.remote.StartOAuthLogin(ctx, provider)
	if err != nil {
		return o.fail(provider, err)
	}

	switch {
	case authURL == "":
		return o.fail(provider, errors.New("no authorization URL returned"))

	case strings.HasPrefix(authURL, "http://"), strings.HasPrefix(authURL, "https://"):
		// Fire-and-forget browser handoff; completion is detected by diffing.
		if err := o.openURL(authURL); err != nil {
			logger.Warn("failed to open browser", "error", err)
		}
		o.sendEvent(Event{Type: EventStateChanged, State: StatePolling, Provider: provider})
		go o.poll(provider, baseline)
		return nil

	default:
		// Synchronous completion token: the account already exists.
		return o.completeImmediately(ctx, provider, baseline)
	}
}

// ensureServer starts the proxy server when it is not running, then waits a
// fixed settle delay before the auth URL is requested.
func (o *Orchestrator) ensureServer(ctx context.Context, provider string) error {
	o.sendEvent(Event{Type: EventStateChanged, State: StateServerEnsuring, Provider: provider})

	status, err := o.remote.GetServerStatus(ctx)
	if err != nil {
		return err
	}
	if status.Running {
		return nil
	}

	if err := o.remote.StartServer(ctx); err != nil {
		return err
	}
	time.Sleep(o.settleDelay)
	return nil
}

// poll re-fetches the account list until a new account appears or the
// ceiling passes. The ceiling is an implicit abandon, not an error.
func (o *Orchestrator) poll(provider string, baseline []models.Account) {
	stop := make(chan struct{})
	o.mu.Lock()
	o.pollStop = stop
	o.mu.Unlock()

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(o.pollTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ticker.C:
			if o.Pending() == nil {
				return
			}
			current, err := o.registry.Refresh(context.Background())
			if err != nil {
				logger.Warn("login poll failed", "error", err)
				continue
			}
			if fresh := registry.DiffNew(baseline, current); len(fresh) > 0 {
				o.finish(provider, fresh)
				return
			}

		case <-deadline.C:
			o.clearPending()
			o.sendEvent(Event{Type: EventTimedOut, State: StateIdle, Provider: provider})
			return

		case <-stop:
			return
		}
	}
}

// completeImmediately handles the synchronous-completion path: refresh the
// registry right away and resolve, including the Google project-id subflow.
func (o *Orchestrator) completeImmediately(ctx context.Context, provider string, baseline []models.Account) error {
	current, err := o.registry.Refresh(ctx)
	if err != nil {
		return o.fail(provider, err)
	}
	o.finish(provider, registry.DiffNew(baseline, current))
	return nil
}

// finish resolves a login. For Google-family providers the project-id prompt
// is opened for the new account, falling back to the most recently known
// Google-family account. The main login completes regardless of what happens
// to the prompt afterwards. Safe against late arrival: every legitimate
// caller holds a live pending marker, so once it is gone (cancel, timeout,
// or an earlier completion) the call is a no-op.
func (o *Orchestrator) finish(provider string, fresh []models.Account) {
	o.mu.Lock()
	if o.pending == nil {
		o.mu.Unlock()
		return
	}
	o.pending = nil
	o.pollStop = nil

	var promptID string
	if models.IsGoogleFamily(provider) && o.prompt == nil {
		promptID = selectGoogleAccount(fresh, o.registry.List())
		if promptID != "" {
			o.prompt = &ProjectPrompt{AccountID: promptID}
		}
	}
	o.mu.Unlock()

	o.sendEvent(Event{Type: EventCompleted, State: StateIdle, Provider: provider, NewAccounts: fresh})
	if promptID != "" {
		o.sendEvent(Event{Type: EventProjectPromptOpened, AccountID: promptID, Provider: provider})
	}
}

// selectGoogleAccount picks the prompt target: the newly appeared
// Google-family account if any, else the most recently known one.
func selectGoogleAccount(fresh, known []models.Account) string {
	for _, acc := range fresh {
		if models.IsGoogleFamily(acc.Provider) {
			return acc.ID
		}
	}
	for i := len(known) - 1; i >= 0; i-- {
		if models.IsGoogleFamily(known[i].Provider) {
			return known[i].ID
		}
	}
	return ""
}

// ConfirmProjectID submits the prompt input. Whitespace-only input returns
// ErrEmptyProjectID and leaves the prompt open without a backend call. Any
// other outcome, success or failure, closes the prompt.
func (o *Orchestrator) ConfirmProjectID(ctx context.Context, input string) error {
	projectID := strings.TrimSpace(input)
	if projectID == "" {
		return ErrEmptyProjectID
	}

	o.mu.Lock()
	prompt := o.prompt
	o.prompt = nil
	o.mu.Unlock()

	if prompt == nil {
		return errors.New("no project prompt is open")
	}

	if err := o.remote.SetGeminiProjectID(ctx, prompt.AccountID, projectID); err != nil {
		o.sendEvent(Event{Type: EventFailed, State: StateIdle, AccountID: prompt.AccountID, Err: err})
		return err
	}

	o.sendEvent(Event{Type: EventProjectIDSaved, AccountID: prompt.AccountID})
	return nil
}

// CancelProjectPrompt closes the prompt and clears any leftover pending
// login without touching the backend. The account keeps whatever state the
// login left it in.
func (o *Orchestrator) CancelProjectPrompt() {
	o.mu.Lock()
	o.prompt = nil
	o.pending = nil
	stop := o.pollStop
	o.pollStop = nil
	o.mu.Unlock()

	if stop != nil {
		close(stop)
	}
}

// fail resets the machine to idle and reports the error.
func (o *Orchestrator) fail(provider string, err error) error {
	o.clearPending()
	o.sendEvent(Event{Type: EventFailed, State: StateIdle, Provider: provider, Err: err})
	return err
}

func (o *Orchestrator) clearPending() {
	o.mu.Lock()
	o.pending = nil
	o.pollStop = nil
	o.mu.Unlock()
}

// sendEvent sends an event to the event channel non-blocking.
func (o *Orchestrator) sendEvent(event Event) {
	select {
	case o.eventChan <- event:
	default:
		select {
		case <-o.eventChan:
		default:
		}
		select {
		case o.eventChan <- event:
		default:
		}
	}
}

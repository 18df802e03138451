package app

import (
	"testing"
	"time"

	"github.com/j-veylop/proxydeck-tui/internal/models"
)

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if len(s.Accounts) != 0 {
		t.Error("Accounts should be empty")
	}
	if s.Loading.Initial != true {
		t.Error("Initial loading should be true")
	}
}

func TestState_SetLoading(t *testing.T) {
	s := NewState()

	s.SetLoading("accounts", true)
	if !s.Loading.Accounts {
		t.Error("Accounts loading should be true")
	}
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true")
	}

	s.SetLoading("accounts", false)
	// Initial is still true
	if !s.AnyLoading() {
		t.Error("AnyLoading should be true (Initial is true)")
	}

	s.SetLoading("initial", false)
	if s.AnyLoading() {
		t.Error("AnyLoading should be false")
	}
}

func TestState_Accounts(t *testing.T) {
	s := NewState()

	accs := []models.AccountWithQuota{
		{Account: models.Account{ID: "a", Provider: "google", Email: "a@test.com"}},
		{Account: models.Account{ID: "b", Provider: "openai", Email: "b@test.com", Enabled: true}},
	}

	s.SetAccounts(accs)

	if s.GetAccountCount() != 2 {
		t.Errorf("GetAccountCount = %d, want 2", s.GetAccountCount())
	}

	gotAccs := s.GetAccounts()
	if len(gotAccs) != 2 {
		t.Errorf("GetAccounts returned %d items", len(gotAccs))
	}

	if s.TimeSinceUpdate() == 0 {
		t.Error("TimeSinceUpdate should be > 0 after SetAccounts")
	}
}

func TestState_Selection(t *testing.T) {
	s := NewState()
	s.SetAccounts([]models.AccountWithQuota{
		{Account: models.Account{ID: "a"}},
		{Account: models.Account{ID: "b"}},
		{Account: models.Account{ID: "c"}},
	})

	s.ToggleSelection("c")
	s.ToggleSelection("a")

	if !s.IsSelected("a") || !s.IsSelected("c") {
		t.Error("a and c should be selected")
	}
	if s.IsSelected("b") {
		t.Error("b should not be selected")
	}
	if s.SelectionCount() != 2 {
		t.Errorf("SelectionCount = %d, want 2", s.SelectionCount())
	}

	// IDs come back in list order, not toggle order.
	ids := s.SelectedIDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Errorf("SelectedIDs = %v, want [a c]", ids)
	}

	s.ToggleSelection("a")
	if s.IsSelected("a") {
		t.Error("toggling again should deselect a")
	}

	s.ClearSelection()
	if s.SelectionCount() != 0 {
		t.Error("ClearSelection should empty the set")
	}
}

func TestState_SetAccountsPrunesSelection(t *testing.T) {
	s := NewState()
	s.SetAccounts([]models.AccountWithQuota{
		{Account: models.Account{ID: "a"}},
		{Account: models.Account{ID: "b"}},
	})
	s.ToggleSelection("a")
	s.ToggleSelection("b")
	s.SetSelectedAccountIndex(1)

	// "b" disappears from the backend; its selection mark must go with it.
	s.SetAccounts([]models.AccountWithQuota{
		{Account: models.Account{ID: "a"}},
	})

	if s.IsSelected("b") {
		t.Error("selection for removed account should be pruned")
	}
	if !s.IsSelected("a") {
		t.Error("selection for surviving account should remain")
	}
	if s.GetSelectedAccountIndex() != 0 {
		t.Errorf("index should clamp to 0, got %d", s.GetSelectedAccountIndex())
	}
}

func TestState_History(t *testing.T) {
	s := NewState()

	if len(s.GetHistory()) != 0 {
		t.Error("history should start empty")
	}

	s.SetHistory([]float64{80, 75.5, 70})
	got := s.GetHistory()
	if len(got) != 3 || got[1] != 75.5 {
		t.Errorf("GetHistory = %v", got)
	}

	// Returned slice is a copy.
	got[0] = 0
	if s.GetHistory()[0] != 80 {
		t.Error("GetHistory should return a copy")
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationInfo, "test", time.Minute)
	if id == "" {
		t.Error("AddNotification returned empty ID")
	}

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("GetNotifications len = %d, want 1", len(notifs))
	}
	if notifs[0].Message != "test" {
		t.Errorf("Notification message = %s, want test", notifs[0].Message)
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("Notification should be removed")
	}
}

func TestState_ClearExpiredNotifications(t *testing.T) {
	s := NewState()

	// Expired
	s.notifications = append(s.notifications, Notification{
		ID:        "expired",
		CreatedAt: time.Now().Add(-2 * time.Minute),
		Duration:  time.Minute,
	})

	// Active
	s.notifications = append(s.notifications, Notification{
		ID:        "active",
		CreatedAt: time.Now(),
		Duration:  time.Minute,
	})

	s.ClearExpiredNotifications()

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != "active" {
		t.Errorf("Expected active notification, got %s", notifs[0].ID)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("loading...")
	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].ID != LoadingNotificationID {
		t.Errorf("Expected ID %s, got %s", LoadingNotificationID, notifs[0].ID)
	}
	if notifs[0].Message != "loading..." {
		t.Errorf("Expected message loading..., got %s", notifs[0].Message)
	}

	// Update message
	s.SetLoadingNotification("still loading...")
	notifs = s.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification after update")
	}
	if notifs[0].Message != "still loading..." {
		t.Errorf("Expected message still loading..., got %s", notifs[0].Message)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("Loading notification should be cleared")
	}
}

func TestState_ServerStatusAndSettings(t *testing.T) {
	s := NewState()

	if s.GetServerStatus() != nil {
		t.Error("server status should start nil")
	}

	s.SetServerStatus(&models.ServerStatus{Running: true, Host: "127.0.0.1", Port: 8417})
	if got := s.GetServerStatus(); got == nil || !got.Running || got.Port != 8417 {
		t.Errorf("GetServerStatus = %+v", got)
	}

	s.SetSettings(&models.Settings{Host: "0.0.0.0", Port: 8417, QuotaRefreshInterval: 5})
	if got := s.GetSettings(); got == nil || got.QuotaRefreshInterval != 5 {
		t.Errorf("GetSettings = %+v", got)
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		t    NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationType(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

package app

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestCommands_Tick(t *testing.T) {
	cmds := NewCommands(nil)
	cmd := cmds.Tick(time.Millisecond)
	if cmd == nil {
		t.Error("Tick returned nil")
	}
}

func TestCommands_Notifications(t *testing.T) {
	cmds := NewCommands(nil)

	tests := []struct {
		name string
		fn   func(string) tea.Cmd
		want NotificationType
	}{
		{"Success", cmds.NotifySuccess, NotificationSuccess},
		{"Error", cmds.NotifyError, NotificationError},
		{"Warning", cmds.NotifyWarning, NotificationWarning},
		{"Info", cmds.NotifyInfo, NotificationInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.fn("msg")
			msg := cmd()

			addMsg, ok := msg.(AddNotificationMsg)
			if !ok {
				t.Fatalf("Expected AddNotificationMsg, got %T", msg)
			}
			if addMsg.Type != tt.want {
				t.Errorf("Type = %v, want %v", addMsg.Type, tt.want)
			}
			if addMsg.Message != "msg" {
				t.Errorf("Message = %q, want msg", addMsg.Message)
			}
		})
	}
}

func TestCommands_NotificationDurations(t *testing.T) {
	cmds := NewCommands(nil)

	// Errors linger, info flashes.
	errMsg := cmds.NotifyError("e")().(AddNotificationMsg)
	infoMsg := cmds.NotifyInfo("i")().(AddNotificationMsg)
	if errMsg.Duration <= infoMsg.Duration {
		t.Errorf("error duration %v should exceed info duration %v",
			errMsg.Duration, infoMsg.Duration)
	}
}

func TestCommands_Delayed(t *testing.T) {
	cmds := NewCommands(nil)
	cmd := cmds.Delayed(time.Millisecond, TickMsg{})
	if cmd == nil {
		t.Error("Delayed returned nil")
	}
}

func TestClearNotificationCmd(t *testing.T) {
	cmd := clearNotificationCmd("id", time.Millisecond)
	if cmd == nil {
		t.Error("clearNotificationCmd returned nil")
	}
}

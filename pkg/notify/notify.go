package notify

import (
	"fmt"
	"os/exec"
	"strings"

	"loot-tracker/pkg/core"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	Error NotificationType = iota
	Info
)

func (t NotificationType) String() string {
	if t == Error {
		return "ERROR"
	}
	return "INFO"
}

const DefaultTitle = "Loot Tracker"

// NotifyService handles system notifications
type NotifyService struct {
	log           core.Logger
	title         string
	notifyCommand string
	logPath       string
	lookPath      func(string) (string, error)
}

// NewNotifyService creates a new notification service
func NewNotifyService(notifyCommand string, log core.Logger) *NotifyService {
	return &NotifyService{
		log:           log,
		title:         DefaultTitle,
		notifyCommand: notifyCommand,
		lookPath:      exec.LookPath,
	}
}

// Show displays a notification of the specified type
func (n *NotifyService) Show(message string, nType NotificationType) error {
	// First try configured notification command if available
	if n.notifyCommand != "" {
		if err := n.executeNotifyCommand(message, nType); err == nil {
			return nil
		}
		n.log.Warn("Custom notification command failed", "command", n.notifyCommand)
	}

	// Try system notification tools
	if err := n.trySystemNotification(n.title, message, nType); err == nil {
		return nil
	}

	// If running in terminal, print directly
	if isRunningInTerminal() {
		return n.printToTerminal(n.title, message, nType)
	}

	// Last resort: log file
	return n.writeToLogFile(n.title, message, nType)
}

// executeNotifyCommand runs `<command> '<TYPE>' '<message>'` through sh.
func (n *NotifyService) executeNotifyCommand(message string, nType NotificationType) error {
	n.log.Debug("Executing notify command", "notifyCommand", n.notifyCommand, "nType", nType.String())

	cmd := exec.Command("sh", "-c", fmt.Sprintf("%s %s %s", n.notifyCommand, shellQuote(nType.String()), shellQuote(message)))
	return cmd.Run()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

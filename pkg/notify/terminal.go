package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func (n *NotifyService) writeToLogFile(title string, message string, nType NotificationType) error {
	logPath := n.logPath
	if logPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		logPath = filepath.Join(homeDir, ".local", "share", "loot-tracker", "notifications.log")
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "[%s] %s - %s: %s\n",
		time.Now().Format("2006-01-02 15:04:05"), title, nType, message); err != nil {
		return fmt.Errorf("failed to write to log file: %w", err)
	}

	n.log.Debug("Notification written to log file", "path", logPath, "type", nType.String())
	return nil
}

func (n *NotifyService) printToTerminal(title string, message string, nType NotificationType) error {
	colorCode := "\x1b[32m" // Green
	if nType == Error {
		colorCode = "\x1b[31m" // Red
	}

	fmt.Fprintf(os.Stderr, "%s%s - %s: %s\x1b[0m\n", colorCode, title, nType, message)
	return nil
}

func isRunningInTerminal() bool {
	// Check if stderr is connected to a terminal
	fileInfo, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

package notify

import (
	"errors"
	"os/exec"
)

const (
	appName  = "loot-tracker"
	stackTag = "string:x-dunst-stack-tag:loot-tracker"
	// session notifications replace each other instead of piling up
	replaceID = "4242"
)

var errNoNotificationTool = errors.New("no notification tools available")

// notificationTool knows how to ask one desktop notifier for a popup.
type notificationTool struct {
	name string
	args func(title, message string, nType NotificationType) []string
}

var notificationTools = []notificationTool{
	{name: "dunstify", args: dunstifyArgs},
	{name: "notify-send", args: notifySendArgs},
	{name: "zenity", args: zenityArgs},
}

func urgency(nType NotificationType) string {
	if nType == Error {
		return "critical"
	}
	return "low"
}

func dunstifyArgs(title, message string, nType NotificationType) []string {
	return []string{"-a", appName, "-r", replaceID, "-u", urgency(nType), "-t", "5000", title, message}
}

func notifySendArgs(title, message string, nType NotificationType) []string {
	return []string{"-a", appName, "-h", stackTag, "-u", urgency(nType), title, message}
}

func zenityArgs(title, message string, nType NotificationType) []string {
	if nType == Error {
		return []string{"--error", "--title", title, "--text", message}
	}
	return []string{"--notification", "--text", title + ": " + message}
}

func (n *NotifyService) trySystemNotification(title string, message string, nType NotificationType) error {
	for _, tool := range notificationTools {
		path, err := n.lookPath(tool.name)
		if err != nil {
			continue
		}
		if err := exec.Command(path, tool.args(title, message, nType)...).Run(); err != nil {
			n.log.Debug("Notification tool failed", "tool", tool.name, "error", err)
			continue
		}
		n.log.Debug("Notification sent", "tool", tool.name, "type", nType.String())
		return nil
	}
	return errNoNotificationTool
}

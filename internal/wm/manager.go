package wm

import (
	"fmt"
	"os"
	"os/exec"

	"loot-tracker/pkg/core"
)

// Manager handles window management operations based on the session type
type Manager struct {
	wm  WindowManager
	log core.Logger
}

// NewManager picks Hyprland or X11 from the session type and falls back to
// robotgo's process lookup everywhere else.
func NewManager(log core.Logger) (*Manager, error) {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	log.Info("Session type detected", "session", sessionType)

	var wm WindowManager
	var err error

	switch {
	case sessionType == "wayland" && os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "":
		log.Debug("Initializing compositor support", "type", "Hyprland")
		wm, err = NewHyprland(log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Hyprland support: %w", err)
		}
	case sessionType == "x11" && hasXdotool():
		log.Debug("Initializing compositor support", "type", "X11")
		wm, err = NewX11()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize X11 support: %w", err)
		}
	default:
		log.Debug("Initializing compositor support", "type", "robotgo")
		wm = NewRobot(log)
	}

	log.Info("Window manager initialized", "name", wm.Name())
	return &Manager{wm: wm, log: log}, nil
}

// FindWindow wraps the underlying window manager's FindWindow method
func (m *Manager) FindWindow(classNames []string, titles []string) (Window, error) {
	return m.wm.FindWindow(classNames, titles)
}

// GetWMName returns the name of the current window manager
func (m *Manager) GetWMName() string {
	return m.wm.Name()
}

func hasXdotool() bool {
	_, err := exec.LookPath("xdotool")
	return err == nil
}

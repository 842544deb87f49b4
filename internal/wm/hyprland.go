package wm

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"loot-tracker/pkg/core"
)

type Hyprland struct {
	log              core.Logger
	hasLoggedWaiting bool
	lastFoundWindow  Window
}

func NewHyprland(log core.Logger) (*Hyprland, error) {
	// Check if hyprctl is available
	path, err := exec.LookPath("hyprctl")
	if err != nil {
		log.Error("hyprctl not found in PATH", err)
		return nil, fmt.Errorf("hyprctl not found in PATH: %w", err)
	}
	log.Debug("Found hyprctl", "path", path)

	return &Hyprland{log: log}, nil
}

func (h *Hyprland) Name() string {
	return "Hyprland"
}

type hyprClient struct {
	Address string `json:"address"`
	Class   string `json:"class"`
	Title   string `json:"title"`
	At      [2]int `json:"at"`
	Size    [2]int `json:"size"`
}

func (h *Hyprland) FindWindow(classNames []string, titles []string) (Window, error) {
	output, err := exec.Command("hyprctl", "clients", "-j").CombinedOutput()
	if err != nil {
		h.log.Error("Failed to execute hyprctl", err, "output", string(output))
		return Window{}, fmt.Errorf("hyprctl error: %w", err)
	}

	if len(output) == 0 {
		return Window{}, nil
	}

	var clients []hyprClient
	if err := json.Unmarshal(output, &clients); err != nil {
		h.log.Error("Failed to parse hyprctl output", err, "output", string(output))
		return Window{}, fmt.Errorf("failed to parse hyprctl output: %w", err)
	}

	if w, ok := matchClient(clients, classNames, titles); ok {
		if w != h.lastFoundWindow {
			h.log.Debug("Found matching window",
				"class", w.Class,
				"title", w.Title,
				"address", w.Address,
				"bounds", w.Bounds)
			h.lastFoundWindow = w
		}
		h.hasLoggedWaiting = false
		return w, nil
	}

	h.lastFoundWindow = Window{}
	if !h.hasLoggedWaiting {
		h.log.Info("Waiting for game window...", "titles", titles)
		h.hasLoggedWaiting = true
	}
	return Window{}, nil
}

func matchClient(clients []hyprClient, classNames []string, titles []string) (Window, bool) {
	for _, c := range clients {
		if containsFold(c.Class, classNames) || containsFold(c.Title, titles) {
			return Window{
				Class:   c.Class,
				Title:   c.Title,
				Address: c.Address,
				Bounds:  Rect{X: c.At[0], Y: c.At[1], Width: c.Size[0], Height: c.Size[1]},
			}, true
		}
	}
	return Window{}, false
}

func containsFold(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(strings.ToLower(s), strings.ToLower(n)) {
			return true
		}
	}
	return false
}

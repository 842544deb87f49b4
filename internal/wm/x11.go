package wm

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type X11 struct{}

func NewX11() (WindowManager, error) {
	// Check if xdotool is available
	if _, err := exec.LookPath("xdotool"); err != nil {
		return nil, fmt.Errorf("xdotool is required for X11 support but was not found: %w", err)
	}
	return &X11{}, nil
}

func (x *X11) Name() string {
	return "X11"
}

func (x *X11) FindWindow(classNames []string, titles []string) (Window, error) {
	for _, class := range classNames {
		out, err := exec.Command("xdotool", "search", "--class", class).Output()
		if err == nil && len(out) > 0 {
			windowID := firstLine(out)

			titleOut, err := exec.Command("xdotool", "getwindowname", windowID).Output()
			if err == nil {
				return x.withGeometry(Window{
					ID:    windowID,
					Class: class,
					Title: strings.TrimSpace(string(titleOut)),
				})
			}
		}
	}

	for _, title := range titles {
		out, err := exec.Command("xdotool", "search", "--name", title).Output()
		if err == nil && len(out) > 0 {
			windowID := firstLine(out)

			classOut, err := exec.Command("xdotool", "getwindowclassname", windowID).Output()
			if err == nil {
				return x.withGeometry(Window{
					ID:    windowID,
					Class: strings.TrimSpace(string(classOut)),
					Title: title,
				})
			}
		}
	}

	return Window{}, nil
}

func (x *X11) withGeometry(w Window) (Window, error) {
	out, err := exec.Command("xdotool", "getwindowgeometry", "--shell", w.ID).Output()
	if err != nil {
		return Window{}, fmt.Errorf("failed to get window geometry: %w", err)
	}
	w.Bounds = parseShellGeometry(out)
	return w, nil
}

// parseShellGeometry reads the KEY=VALUE lines of `xdotool getwindowgeometry --shell`.
func parseShellGeometry(out []byte) Rect {
	var r Rect
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		switch key {
		case "X":
			r.X = n
		case "Y":
			r.Y = n
		case "WIDTH":
			r.Width = n
		case "HEIGHT":
			r.Height = n
		}
	}
	return r
}

func firstLine(out []byte) string {
	return strings.Split(strings.TrimSpace(string(out)), "\n")[0]
}

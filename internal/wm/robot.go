package wm

import (
	"strconv"

	"github.com/go-vgo/robotgo"

	"loot-tracker/pkg/core"
)

// Robot finds the target through robotgo's process and window APIs.
// It is the backend for sessions without hyprctl or xdotool.
type Robot struct {
	log core.Logger
}

func NewRobot(log core.Logger) *Robot {
	return &Robot{log: log}
}

func (r *Robot) Name() string {
	return "robotgo"
}

// FindWindow treats classNames as process names and matches titles against
// each process's window title.
func (r *Robot) FindWindow(classNames []string, titles []string) (Window, error) {
	for _, name := range classNames {
		pids, err := robotgo.FindIds(name)
		if err != nil {
			r.log.Debug("Process lookup failed", "name", name, "error", err)
			continue
		}
		if len(pids) > 0 {
			return r.window(pids[0], name), nil
		}
	}

	pids, err := robotgo.Pids()
	if err != nil {
		return Window{}, err
	}
	for _, pid := range pids {
		title := robotgo.GetTitle(pid)
		if containsFold(title, titles) {
			return r.window(pid, ""), nil
		}
	}
	return Window{}, nil
}

func (r *Robot) window(pid int, class string) Window {
	x, y, w, h := robotgo.GetBounds(pid)
	return Window{
		ID:     strconv.Itoa(pid),
		Class:  class,
		Title:  robotgo.GetTitle(pid),
		Bounds: Rect{X: x, Y: y, Width: w, Height: h},
	}
}

// DisplayScale returns the main display scale in percent, 100 when unknown.
func DisplayScale() float64 {
	if s := robotgo.ScaleF(); s > 0 {
		return s * 100
	}
	return 100
}

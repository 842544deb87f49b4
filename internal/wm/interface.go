package wm

// WindowManager locates the capture target on the desktop.
type WindowManager interface {
	// FindWindow looks for a window by class name or title.
	// A zero Window and nil error mean nothing matched yet.
	FindWindow(classNames []string, titles []string) (Window, error)
	// Name returns the WM name for logging/display
	Name() string
}

type Window struct {
	ID      string
	Class   string
	Title   string
	Address string // For Hyprland
	Bounds  Rect
}

// Found reports whether w refers to an actual window.
func (w Window) Found() bool {
	return w.ID != "" || w.Address != ""
}

// Rect is a window's position and size in desktop pixels.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

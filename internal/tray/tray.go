// Package tray provides a system tray showing the gesture pipeline status,
// with an enable toggle and quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the system tray application.
type Tray struct {
	status *Status

	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	menuToggle *systray.MenuItem
	menuHand   *systray.MenuItem
	menuArmed  *systray.MenuItem
	menuMode   *systray.MenuItem
}

// New creates a Tray, enabled by default.
func New() *Tray {
	t := &Tray{enabled: true}
	t.status = NewStatus(t.apply)
	return t
}

// Status returns the emit.Handler feeding the tray.
func (t *Tray) Status() *Status {
	return t.status
}

// OnToggle sets the callback run when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback run when the viewer menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit is called and must run
// on the main goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	l := t.status.Labels()
	systray.SetTitle(l.Title)
	systray.SetTooltip("handsteer gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume gesture tracking")
	systray.AddSeparator()
	t.menuHand = systray.AddMenuItem(l.Hand, "")
	t.menuHand.Disable()
	t.menuArmed = systray.AddMenuItem(l.Armed, "")
	t.menuArmed.Disable()
	t.menuMode = systray.AddMenuItem(l.Mode, "")
	t.menuMode.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the viewer in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit handsteer")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

// apply updates the menu with new status labels. Before the tray is ready
// only the labels are kept; onReady picks them up.
func (t *Tray) apply(l Labels) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuHand == nil {
		return
	}
	systray.SetTitle(l.Title)
	t.menuHand.SetTitle(l.Hand)
	t.menuArmed.SetTitle(l.Armed)
	t.menuMode.SetTitle(l.Mode)
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

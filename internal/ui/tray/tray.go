package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnSetup       func()
	OnTogglePause func()
	OnStopSession func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	statusItem  *fyne.MenuItem
	pauseItem   *fyne.MenuItem
	stopItem    *fyne.MenuItem
	callbacks   Callbacks
	paused      bool
	inSession   bool
	statusLabel string
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:         app,
		callbacks:   callbacks,
		statusLabel: "idle",
	}

	manager.statusItem = fyne.NewMenuItem("Status: idle", nil)
	manager.statusItem.Disabled = true

	manager.pauseItem = fyne.NewMenuItem("Pause", func() {
		if manager.callbacks.OnTogglePause != nil {
			manager.callbacks.OnTogglePause()
		}
	})
	manager.pauseItem.Disabled = true

	manager.stopItem = fyne.NewMenuItem("Stop session", func() {
		if manager.callbacks.OnStopSession != nil {
			manager.callbacks.OnStopSession()
		}
	})
	manager.stopItem.Disabled = true

	manager.refreshMenu()
	return manager
}

// SetStatus updates the status line. Calls on a nil manager are no-ops so
// callers need no tray-availability checks.
func (manager *Manager) SetStatus(status string) {
	if manager == nil {
		return
	}
	manager.statusLabel = status
	manager.refreshStatus()
}

// SetPaused updates pause state.
func (manager *Manager) SetPaused(paused bool) {
	if manager == nil {
		return
	}
	manager.paused = paused
	if paused {
		manager.pauseItem.Label = "Resume"
	} else {
		manager.pauseItem.Label = "Pause"
	}
	manager.refreshStatus()
}

// SetInSession toggles the session-bound menu items.
func (manager *Manager) SetInSession(inSession bool) {
	if manager == nil {
		return
	}
	manager.inSession = inSession
	manager.pauseItem.Disabled = !inSession
	manager.stopItem.Disabled = !inSession
	if !inSession {
		manager.SetPaused(false)
		manager.SetStatus("idle")
		return
	}
	manager.refreshMenu()
}

func (manager *Manager) refreshStatus() {
	status := manager.statusLabel
	if manager.paused {
		status = fmt.Sprintf("%s (paused)", status)
	}
	manager.statusItem.Label = fmt.Sprintf("Status: %s", status)
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu("BreathBox",
		manager.statusItem,
		fyne.NewMenuItem("Setup", func() {
			if manager.callbacks.OnSetup != nil {
				manager.callbacks.OnSetup()
			}
		}),
		manager.pauseItem,
		manager.stopItem,
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	))
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"breathbox/internal/audio"
	"breathbox/internal/core/breather"
	"breathbox/internal/core/model"
	"breathbox/internal/logger"
	"breathbox/internal/platform"
	"breathbox/internal/storage"
	"breathbox/internal/ui/breath"
	"breathbox/internal/ui/setup"
	"breathbox/internal/ui/tray"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
)

const appName = "BreathBox"

func main() {
	log := logger.New(logger.LevelNormal, nil)

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		log.Warn("another instance is already running: %v", err)
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	configDir := resolveConfigDir(log)
	appConfig := loadAppConfig(configDir, log)
	if appConfig.Verbose {
		log.SetLevel(logger.LevelVerbose)
	}

	fyneApp := app.NewWithID("com.breathbox.app")

	var presets storage.PresetStore
	if configDir != "" {
		presets = storage.NewFileStore(configDir, log)
	} else {
		log.Warn("no config directory, favorite preset will not persist")
		presets = storage.NewMemoryStore()
	}

	var cues breather.CuePlayer
	if appConfig.SoundEnabled {
		player, err := audio.NewPlayer(log)
		if err != nil {
			log.Error("audio unavailable, continuing without sound: %v", err)
			cues = audio.NewNoOp(log)
		} else {
			cues = player
		}
	} else {
		cues = audio.NewNoOp(log)
	}

	// The engine pointer and pause flag are only touched on the UI thread:
	// button handlers, tray callbacks, and the fyne.Do-wrapped end handler.
	var (
		engine        *breather.Breather
		paused        bool
		setupWindow   *setup.Window
		sessionWindow *breath.Window
		trayManager   *tray.Manager
	)

	endSession := func() {
		if engine == nil {
			return
		}
		active := engine
		engine = nil
		paused = false
		active.Stop()
		trayManager.SetPaused(false)
		trayManager.SetInSession(false)
		trayManager.SetStatus("idle")
		sessionWindow.Hide()
		setupWindow.Show()
	}

	togglePause := func() {
		if engine == nil {
			return
		}
		if paused {
			engine.Resume()
		} else {
			engine.Pause()
		}
		paused = !paused
		trayManager.SetPaused(paused)
	}

	startSession := func(settings model.Settings) {
		if engine != nil {
			return
		}
		options := breather.Config{
			TickInterval: time.Second / time.Duration(appConfig.StepRate),
		}
		next, err := breather.New(settings, cues, options)
		if err != nil {
			log.Error("start session: %v", err)
			return
		}
		next.SetOnEnd(func() {
			fyne.Do(func() {
				endSession()
			})
		})
		go watchSession(next.Subscribe(8), sessionWindow, trayManager)

		engine = next
		paused = false
		log.Debug("session started: inhale=%s hold=%s exhale=%s total=%s",
			settings.Inhale, settings.Hold, settings.Exhale, settings.Total)

		setupWindow.Hide()
		sessionWindow.Show()
		trayManager.SetInSession(true)
		next.Start()
	}

	setupWindow = setup.New(fyneApp, presets, log, startSession)
	setupWindow.SetCloseHandler(func() {
		if engine != nil {
			engine.Stop()
		}
		fyneApp.Quit()
	})

	sessionWindow = breath.New(fyneApp, func() {
		endSession()
	})

	if desktopApp, ok := fyneApp.(desktop.App); ok {
		trayManager = tray.New(desktopApp, tray.Callbacks{
			OnSetup: func() {
				setupWindow.Show()
			},
			OnTogglePause: togglePause,
			OnStopSession: endSession,
			OnQuit: func() {
				if engine != nil {
					engine.Stop()
				}
				fyneApp.Quit()
			},
		})
	} else {
		log.Warn("system tray unsupported on this platform")
	}

	setupWindow.Show()
	fyneApp.Run()
}

// watchSession forwards engine events to the session window and the tray
// until the event channel closes with the session.
func watchSession(events <-chan breather.Event, session *breath.Window, trayManager *tray.Manager) {
	lastStatus := ""
	for event := range events {
		switch event.Type {
		case breather.EventPhaseChange:
			session.SetPhase(event.Phase)
			session.SetScale(event.Scale)
			session.SetPhaseSeconds(event.PhaseLeft)
			session.SetCountdown(event.Remaining)
		case breather.EventProgress:
			session.SetScale(event.Scale)
			session.SetCountdown(event.Remaining)
			if event.Remaining <= 0 {
				session.ShowFinished()
			} else {
				session.SetPhaseSeconds(event.PhaseLeft)
			}
		}

		if status := sessionStatus(event); status != lastStatus {
			lastStatus = status
			trayManager.SetStatus(status)
		}
	}
}

func sessionStatus(event breather.Event) string {
	switch event.Type {
	case breather.EventPaused:
		return "paused"
	case breather.EventFinished:
		return "done"
	}
	if event.Remaining <= 0 {
		return "finishing"
	}
	return "breathing " + formatRemaining(event.Remaining)
}

func formatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	seconds := int(remaining.Seconds())
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func resolveConfigDir(log *logger.Logger) string {
	base, err := os.UserConfigDir()
	if err != nil {
		log.Warn("user config dir: %v", err)
		return ""
	}
	return filepath.Join(base, appName)
}

// loadAppConfig reads the YAML app config and writes the normalized form
// back so a fresh install ends up with a file the user can edit.
func loadAppConfig(dir string, log *logger.Logger) storage.AppConfig {
	if dir == "" {
		return storage.DefaultAppConfig()
	}
	config, err := storage.LoadAppConfig(dir)
	if err != nil {
		log.Warn("load app config: %v", err)
		return storage.DefaultAppConfig()
	}
	if err := storage.SaveAppConfig(dir, config); err != nil {
		log.Warn("save app config: %v", err)
	}
	return config
}

// Package setup implements the session setup window: duration sliders, the
// favorite preset controls, and the start action.
package setup

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"breathbox/internal/core/model"
	"breathbox/internal/logger"
	"breathbox/internal/storage"
)

// Window handles the setup UI.
type Window struct {
	window  fyne.Window
	store   storage.PresetStore
	log     *logger.Logger
	onStart func(model.Settings)

	inhale *widget.Slider
	hold   *widget.Slider
	exhale *widget.Slider
	total  *widget.Slider

	inhaleValue *widget.Label
	holdValue   *widget.Label
	exhaleValue *widget.Label
	totalValue  *widget.Label

	favoriteStatus *widget.Label
	clearFavorite  *widget.Button
}

// New creates the setup window. The saved favorite, when present, seeds the
// sliders; otherwise the defaults do.
func New(app fyne.App, store storage.PresetStore, log *logger.Logger, onStart func(model.Settings)) *Window {
	window := app.NewWindow("BreathBox")

	setup := &Window{
		window:  window,
		store:   store,
		log:     log,
		onStart: onStart,
	}

	setup.inhale, setup.inhaleValue = newPhaseSlider()
	setup.hold, setup.holdValue = newPhaseSlider()
	setup.exhale, setup.exhaleValue = newPhaseSlider()

	setup.total = widget.NewSlider(model.MinTotal.Minutes(), model.MaxTotal.Minutes())
	setup.total.Step = 1
	setup.totalValue = widget.NewLabel("")
	setup.total.OnChanged = func(value float64) {
		setup.totalValue.SetText(fmt.Sprintf("%d min", int(value)))
	}

	setup.favoriteStatus = widget.NewLabel("")

	startButton := widget.NewButton("Start session", setup.handleStart)
	startButton.Importance = widget.HighImportance

	saveFavorite := widget.NewButton("Save favorite", setup.handleSaveFavorite)
	setup.clearFavorite = widget.NewButton("Clear favorite", setup.handleClearFavorite)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Breathing rhythm", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		sliderRow("Inhale", setup.inhale, setup.inhaleValue),
		sliderRow("Hold", setup.hold, setup.holdValue),
		sliderRow("Exhale", setup.exhale, setup.exhaleValue),
		widget.NewLabelWithStyle("Session", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		sliderRow("Duration", setup.total, setup.totalValue),
		widget.NewSeparator(),
		container.NewHBox(saveFavorite, setup.clearFavorite, layout.NewSpacer(), setup.favoriteStatus),
	)

	content := container.NewBorder(nil, container.NewPadded(startButton), nil, nil, container.NewPadded(form))
	window.SetContent(content)
	window.Resize(fyne.NewSize(440, 400))

	setup.applySettings(setup.initialSettings())
	return setup
}

// Show displays the setup window.
func (setup *Window) Show() {
	setup.window.Show()
	setup.window.RequestFocus()
}

// Hide conceals the setup window while a session runs.
func (setup *Window) Hide() {
	setup.window.Hide()
}

// SetCloseHandler intercepts window close.
func (setup *Window) SetCloseHandler(handler func()) {
	setup.window.SetCloseIntercept(handler)
}

// Settings returns the clamped settings the sliders currently describe.
func (setup *Window) Settings() model.Settings {
	return model.FromSeconds(
		int(setup.inhale.Value),
		int(setup.hold.Value),
		int(setup.exhale.Value),
		int(setup.total.Value),
	)
}

func (setup *Window) handleStart() {
	settings := setup.Settings()
	if err := settings.Validate(); err != nil {
		dialog.ShowError(err, setup.window)
		return
	}
	if setup.onStart != nil {
		setup.onStart(settings)
	}
}

func (setup *Window) handleSaveFavorite() {
	settings := setup.Settings()
	if err := setup.store.Save(settings); err != nil {
		setup.log.Error("save favorite: %v", err)
		setup.favoriteStatus.SetText("Could not save")
		return
	}
	setup.favoriteStatus.SetText("Favorite saved")
	setup.clearFavorite.Enable()
}

func (setup *Window) handleClearFavorite() {
	if err := setup.store.Clear(); err != nil {
		setup.log.Error("clear favorite: %v", err)
		setup.favoriteStatus.SetText("Could not clear")
		return
	}
	setup.favoriteStatus.SetText("Favorite cleared")
	setup.clearFavorite.Disable()
}

func (setup *Window) initialSettings() model.Settings {
	favorite, ok, err := setup.store.Load()
	if err != nil {
		setup.log.Warn("load favorite: %v", err)
	}
	if ok {
		setup.favoriteStatus.SetText("Favorite loaded")
		return favorite
	}
	setup.clearFavorite.Disable()
	return model.DefaultSettings()
}

func (setup *Window) applySettings(settings model.Settings) {
	setup.inhale.SetValue(settings.Inhale.Seconds())
	setup.hold.SetValue(settings.Hold.Seconds())
	setup.exhale.SetValue(settings.Exhale.Seconds())
	setup.total.SetValue(settings.Total.Minutes())

	// SetValue skips OnChanged when the value is unchanged, so refresh the
	// labels directly.
	setup.inhaleValue.SetText(fmt.Sprintf("%d s", int(settings.Inhale/time.Second)))
	setup.holdValue.SetText(fmt.Sprintf("%d s", int(settings.Hold/time.Second)))
	setup.exhaleValue.SetText(fmt.Sprintf("%d s", int(settings.Exhale/time.Second)))
	setup.totalValue.SetText(fmt.Sprintf("%d min", int(settings.Total/time.Minute)))
}

func newPhaseSlider() (*widget.Slider, *widget.Label) {
	slider := widget.NewSlider(model.MinPhase.Seconds(), model.MaxPhase.Seconds())
	slider.Step = 1
	value := widget.NewLabel("")
	slider.OnChanged = func(v float64) {
		value.SetText(fmt.Sprintf("%d s", int(v)))
	}
	return slider, value
}

func sliderRow(name string, slider *widget.Slider, value *widget.Label) fyne.CanvasObject {
	label := widget.NewLabel(name)
	return container.NewBorder(nil, nil, label, value, slider)
}

// Package breath implements the session window: the pulsing circle, the
// phase and countdown readouts, and the stop control.
package breath

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"breathbox/internal/core/model"
)

const (
	windowWidth  = float32(420)
	windowHeight = float32(480)

	// Rest diameter of the circle as a fraction of the smaller window
	// dimension. The maximum scale of 1.3 must still fit.
	restFraction = float32(0.45)
)

// Window manages the session UI. All Set* methods may be called from any
// goroutine; they hop onto the UI thread themselves.
type Window struct {
	window fyne.Window
	pulse  *pulseLayout
	root   *fyne.Container

	circle       *canvas.Circle
	phaseLabel   *canvas.Text
	secondsLabel *canvas.Text
	clockLabel   *canvas.Text
	stopButton   *widget.Button

	onStop func()
}

// New creates a session window. The stop handler fires for both the Stop
// button and the window close button.
func New(app fyne.App, onStop func()) *Window {
	window := app.NewWindow("BreathBox session")

	background := canvas.NewRectangle(color.NRGBA{R: 16, G: 24, B: 32, A: 255})

	circle := canvas.NewCircle(color.NRGBA{R: 86, G: 156, B: 214, A: 255})
	circle.StrokeColor = color.NRGBA{R: 140, G: 200, B: 255, A: 255}
	circle.StrokeWidth = 2

	phaseLabel := canvas.NewText("Breathe in", color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	phaseLabel.Alignment = fyne.TextAlignCenter
	phaseLabel.TextStyle = fyne.TextStyle{Bold: true}
	phaseLabel.TextSize = 22

	secondsLabel := canvas.NewText("", color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	secondsLabel.Alignment = fyne.TextAlignCenter
	secondsLabel.TextStyle = fyne.TextStyle{Bold: true}
	secondsLabel.TextSize = 30

	clockLabel := canvas.NewText("--:--", color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	clockLabel.Alignment = fyne.TextAlignCenter
	clockLabel.TextStyle = fyne.TextStyle{Bold: true}
	clockLabel.TextSize = 16

	stopButton := widget.NewButton("Stop", nil)

	pulse := &pulseLayout{scale: 1.0}
	root := container.New(pulse, background, circle, phaseLabel, secondsLabel, clockLabel, stopButton)

	window.SetContent(root)
	window.Resize(fyne.NewSize(windowWidth, windowHeight))
	window.CenterOnScreen()

	session := &Window{
		window:       window,
		pulse:        pulse,
		root:         root,
		circle:       circle,
		phaseLabel:   phaseLabel,
		secondsLabel: secondsLabel,
		clockLabel:   clockLabel,
		stopButton:   stopButton,
		onStop:       onStop,
	}

	stopButton.OnTapped = func() {
		if session.onStop != nil {
			session.onStop()
		}
	}
	window.SetCloseIntercept(func() {
		if session.onStop != nil {
			session.onStop()
		}
	})

	return session
}

// SetOnStop sets the early-stop handler.
func (session *Window) SetOnStop(handler func()) {
	session.onStop = handler
}

// Show displays the session window.
func (session *Window) Show() {
	session.window.Show()
	session.window.RequestFocus()
}

// Hide conceals the session window.
func (session *Window) Hide() {
	fyne.Do(func() {
		session.window.Hide()
	})
}

// SetPhase updates the phase headline.
func (session *Window) SetPhase(phase model.Phase) {
	fyne.Do(func() {
		session.phaseLabel.Text = phaseDescription(phase)
		session.phaseLabel.Refresh()
	})
}

// SetScale resizes the breathing circle.
func (session *Window) SetScale(scale float64) {
	fyne.Do(func() {
		session.pulse.scale = float32(scale)
		session.root.Refresh()
	})
}

// SetCountdown updates the session clock (mm:ss).
func (session *Window) SetCountdown(remaining time.Duration) {
	fyne.Do(func() {
		session.clockLabel.Text = formatClock(remaining)
		session.clockLabel.Refresh()
	})
}

// SetPhaseSeconds updates the in-circle phase counter, shown as a raw
// second count.
func (session *Window) SetPhaseSeconds(left time.Duration) {
	fyne.Do(func() {
		session.secondsLabel.Text = fmt.Sprintf("%d", phaseSeconds(left))
		session.secondsLabel.Refresh()
	})
}

// ShowFinished swaps the headline for the end-of-session message.
func (session *Window) ShowFinished() {
	fyne.Do(func() {
		session.phaseLabel.Text = "Well done"
		session.phaseLabel.Refresh()
		session.secondsLabel.Text = ""
		session.secondsLabel.Refresh()
	})
}

func phaseDescription(phase model.Phase) string {
	switch phase {
	case model.PhaseInhale:
		return "Breathe in"
	case model.PhaseHold:
		return "Hold"
	case model.PhaseExhale:
		return "Breathe out"
	default:
		return ""
	}
}

// formatClock renders a countdown as mm:ss.
func formatClock(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int(value.Seconds())
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// phaseSeconds renders the phase countdown the way a person counts: a
// 4 second phase reads 4, 3, 2, 1.
func phaseSeconds(left time.Duration) int {
	seconds := int((left + time.Second - 1) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	return seconds
}

// pulseLayout centers the circle and scales its diameter with the current
// breathing scale; the readouts stack around it.
type pulseLayout struct {
	scale float32
}

func (pulse *pulseLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 6 {
		return
	}
	background := objects[0]
	circle := objects[1]
	phase := objects[2]
	seconds := objects[3]
	clock := objects[4]
	stop := objects[5]

	background.Move(fyne.NewPos(0, 0))
	background.Resize(size)

	smaller := size.Width
	if size.Height < smaller {
		smaller = size.Height
	}
	diameter := smaller * restFraction * pulse.scale
	centerX := size.Width / 2
	centerY := size.Height * 0.52

	circle.Move(fyne.NewPos(centerX-diameter/2, centerY-diameter/2))
	circle.Resize(fyne.NewSize(diameter, diameter))

	phaseSize := phase.MinSize()
	phase.Move(fyne.NewPos(centerX-phaseSize.Width/2, size.Height*0.08))
	phase.Resize(phaseSize)

	secondsSize := seconds.MinSize()
	seconds.Move(fyne.NewPos(centerX-secondsSize.Width/2, centerY-secondsSize.Height/2))
	seconds.Resize(secondsSize)

	clockSize := clock.MinSize()
	clock.Move(fyne.NewPos(centerX-clockSize.Width/2, size.Height*0.08+phaseSize.Height+8))
	clock.Resize(clockSize)

	stopSize := stop.MinSize()
	stopY := size.Height - stopSize.Height - size.Height*0.05
	stop.Move(fyne.NewPos(centerX-stopSize.Width/2, stopY))
	stop.Resize(stopSize)
}

func (pulse *pulseLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(320, 360)
}

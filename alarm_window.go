package main

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/borgmon/daybreak/pkg/models"
	"github.com/borgmon/daybreak/pkg/platform"
	"github.com/borgmon/daybreak/pkg/scheduler"
)

// AlarmWindow is the full-screen window shown when an alarm rings. It stays
// up, with the sound looping, until the hold-to-dismiss button completes.
type AlarmWindow struct {
	window fyne.Window
	sched  *scheduler.Scheduler
	alarm  models.Alarm
	log    *zap.Logger
}

func NewAlarmWindow(app fyne.App, sched *scheduler.Scheduler, alarm models.Alarm, holdSeconds int, log *zap.Logger) *AlarmWindow {
	w := &AlarmWindow{
		window: app.NewWindow(alarm.Title(appName)),
		sched:  sched,
		alarm:  alarm,
		log:    log,
	}

	title := canvas.NewText(alarm.Title(appName), theme.ForegroundColor())
	title.TextSize = 32
	title.Alignment = fyne.TextAlignCenter
	title.TextStyle = fyne.TextStyle{Bold: true}

	timeText := canvas.NewText(alarm.TimeString(), theme.ForegroundColor())
	timeText.TextSize = 24
	timeText.Alignment = fyne.TextAlignCenter

	content := widget.NewLabel(alarm.Content())
	content.Alignment = fyne.TextAlignCenter
	content.Wrapping = fyne.TextWrapWord

	holdTime := time.Duration(holdSeconds) * time.Second
	dismissBtn := NewHoldButton("Hold to Dismiss", holdTime, w.dismiss)

	w.window.SetContent(container.NewCenter(container.NewVBox(
		title,
		timeText,
		content,
		widget.NewLabel(""),
		container.NewCenter(dismissBtn),
	)))

	w.window.SetFullScreen(true)
	w.window.SetCloseIntercept(func() {
		// Closing the window any other way still has to silence the alarm.
		w.dismiss()
	})

	return w
}

// Show must run on the UI goroutine.
func (w *AlarmWindow) Show() {
	w.window.Show()
	w.window.RequestFocus()
	if !platform.IsAppActive() {
		platform.ActivateApp()
	}
}

func (w *AlarmWindow) dismiss() {
	if err := w.sched.Dismiss(&w.alarm); err != nil {
		w.log.Error("dismiss alarm", zap.Int64("id", w.alarm.ID), zap.Error(err))
	}
	fyne.Do(func() {
		w.window.Close()
	})
}

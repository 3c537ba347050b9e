package main

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/borgmon/daybreak/pkg/models"
)

// AlarmsWindow is the management window reached from the tray: the alarm
// list with add/edit/delete plus a general settings tab.
type AlarmsWindow struct {
	window fyne.Window
	db     *Daybreak

	alarmsList  *widget.List
	alarmsData  []models.Alarm
	selectedRow int

	storeCh <-chan []models.Alarm

	// Set while the list refreshes checkboxes so their OnChanged callbacks
	// don't loop a store snapshot back into another update.
	refreshing bool
}

func NewAlarmsWindow(db *Daybreak, onClosed func()) *AlarmsWindow {
	aw := &AlarmsWindow{
		db:          db,
		selectedRow: -1,
	}

	aw.window = db.app.NewWindow(appName + " - Alarms")
	aw.buildUI()
	aw.window.Resize(fyne.NewSize(480, 420))

	aw.storeCh = db.store.Subscribe()
	go aw.watchStore()

	aw.window.SetOnClosed(func() {
		db.store.Unsubscribe(aw.storeCh)
		if onClosed != nil {
			onClosed()
		}
	})

	return aw
}

func (aw *AlarmsWindow) Show() {
	aw.window.Show()
}

func (aw *AlarmsWindow) buildUI() {
	tabs := container.NewAppTabs(
		container.NewTabItem("Alarms", aw.buildAlarmsTab()),
		container.NewTabItem("General", aw.buildGeneralTab()),
	)
	aw.window.SetContent(tabs)
}

func (aw *AlarmsWindow) buildAlarmsTab() fyne.CanvasObject {
	aw.alarmsList = widget.NewList(
		func() int {
			return len(aw.alarmsData)
		},
		func() fyne.CanvasObject {
			check := widget.NewCheck("", nil)
			label := widget.NewLabel("")
			label.Truncation = fyne.TextTruncateEllipsis
			return container.NewBorder(nil, nil, check, nil, label)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id >= len(aw.alarmsData) {
				return
			}
			alarm := aw.alarmsData[id]
			// NewBorder appends edge objects before the center one.
			row := obj.(*fyne.Container)
			check := row.Objects[0].(*widget.Check)
			label := row.Objects[1].(*widget.Label)

			aw.refreshing = true
			check.SetChecked(alarm.Enabled)
			aw.refreshing = false
			check.OnChanged = func(enabled bool) {
				if aw.refreshing {
					return
				}
				aw.toggleAlarm(alarm, enabled)
			}

			label.SetText(alarmRowText(&alarm))
		},
	)
	aw.alarmsList.OnSelected = func(id widget.ListItemID) {
		aw.selectedRow = id
	}
	aw.alarmsList.OnUnselected = func(widget.ListItemID) {
		aw.selectedRow = -1
	}

	addButton := widget.NewButton("Add", func() {
		aw.showAlarmForm(nil)
	})
	editButton := widget.NewButton("Edit", func() {
		if alarm := aw.selectedAlarm(); alarm != nil {
			aw.showAlarmForm(alarm)
		}
	})
	deleteButton := widget.NewButton("Delete", func() {
		alarm := aw.selectedAlarm()
		if alarm == nil {
			return
		}
		dialog.ShowConfirm("Delete Alarm",
			fmt.Sprintf("Delete the %s alarm?", alarm.TimeString()),
			func(confirmed bool) {
				if !confirmed {
					return
				}
				if err := aw.db.sched.Delete(alarm); err != nil {
					dialog.ShowError(err, aw.window)
				}
			}, aw.window)
	})

	buttons := container.NewHBox(layout.NewSpacer(), addButton, editButton, deleteButton)
	return container.NewBorder(nil, buttons, nil, nil, aw.alarmsList)
}

func (aw *AlarmsWindow) buildGeneralTab() fyne.CanvasObject {
	autoStartCheck := widget.NewCheck("Start on login", func(checked bool) {
		aw.db.settings.AutoStart = checked
		saveSettings(aw.db.app, aw.db.settings)
		if err := setupAutostart(checked); err != nil {
			aw.db.log.Warn("autostart update failed", zap.Error(err))
			dialog.ShowError(err, aw.window)
		}
	})
	autoStartCheck.SetChecked(aw.db.settings.AutoStart)

	holdOptions := []string{"1", "2", "3", "5", "10"}
	holdSelect := widget.NewSelect(holdOptions, func(value string) {
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return
		}
		aw.db.settings.HoldTimeSeconds = seconds
		saveSettings(aw.db.app, aw.db.settings)
	})
	holdSelect.SetSelected(strconv.Itoa(aw.db.settings.HoldTimeSeconds))

	holdHelp := widget.NewLabel("How long the dismiss button must be held when an alarm rings")
	holdHelp.Wrapping = fyne.TextWrapWord
	holdHelp.Importance = widget.MediumImportance

	return container.NewVBox(
		autoStartCheck,
		widget.NewSeparator(),
		widget.NewLabel("Hold to dismiss (seconds):"),
		holdSelect,
		holdHelp,
	)
}

func (aw *AlarmsWindow) selectedAlarm() *models.Alarm {
	if aw.selectedRow < 0 || aw.selectedRow >= len(aw.alarmsData) {
		return nil
	}
	alarm := aw.alarmsData[aw.selectedRow]
	return &alarm
}

func (aw *AlarmsWindow) toggleAlarm(alarm models.Alarm, enabled bool) {
	alarm.Enabled = enabled
	if err := aw.db.sched.Update(&alarm); err != nil {
		aw.db.log.Error("toggle alarm failed", zap.Int64("id", alarm.ID), zap.Error(err))
		dialog.ShowError(err, aw.window)
	}
}

// watchStore repaints the list after every store mutation. The snapshot
// channel is closed by Unsubscribe when the window goes away.
func (aw *AlarmsWindow) watchStore() {
	for snapshot := range aw.storeCh {
		alarms := snapshot
		fyne.Do(func() {
			aw.alarmsData = alarms
			if aw.selectedRow >= len(alarms) {
				aw.selectedRow = -1
				aw.alarmsList.UnselectAll()
			}
			aw.alarmsList.Refresh()
		})
	}
}

func alarmRowText(a *models.Alarm) string {
	text := fmt.Sprintf("%s  %s", a.TimeString(), a.Repeat.DisplayName())
	if a.Remark != "" {
		text += "  " + a.Remark
	}
	return text
}

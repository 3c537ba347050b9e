package main

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"go.uber.org/zap"

	"github.com/borgmon/daybreak/pkg/export"
)

// exportSchedule writes the enabled alarms to an iCalendar file picked by
// the user. The save dialog needs a parent window, so the alarms window is
// opened first if it isn't already.
func (db *Daybreak) exportSchedule() {
	db.showAlarmsWindow()
	parent := db.alarmsWindow.window

	alarms, err := db.store.List()
	if err != nil {
		dialog.ShowError(err, parent)
		return
	}

	saver := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, parent)
			return
		}
		if wc == nil {
			return
		}
		defer wc.Close()

		if err := export.WriteCalendar(wc, alarms, time.Now()); err != nil {
			db.log.Error("schedule export failed", zap.Error(err))
			dialog.ShowError(err, parent)
			return
		}
		db.log.Info("schedule exported", zap.String("uri", wc.URI().String()), zap.Int("alarms", len(alarms)))
	}, parent)
	saver.SetFileName("alarms.ics")
	saver.Show()
}

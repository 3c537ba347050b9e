package main

import (
	"fmt"
	"sort"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"go.uber.org/zap"

	"github.com/borgmon/daybreak/pkg/models"
)

func (db *Daybreak) setupSystemTray() {
	db.updateSystemTrayMenu()
}

func (db *Daybreak) updateSystemTrayMenu() {
	desk, ok := db.app.(desktop.App)
	if !ok {
		return
	}

	menuItems := []*fyne.MenuItem{}

	upcoming := db.upcomingAlarms(5)
	if len(upcoming) > 0 {
		header := fyne.NewMenuItem("Upcoming:", nil)
		header.Disabled = true
		menuItems = append(menuItems, header)

		for _, u := range upcoming {
			label := fmt.Sprintf("  %s %s - %s",
				u.at.Format("Mon"),
				u.at.Format("3:04 PM"),
				truncateString(u.alarm.Title(appName), 30))
			item := fyne.NewMenuItem(label, nil)
			item.Disabled = true
			menuItems = append(menuItems, item)
		}
		menuItems = append(menuItems, fyne.NewMenuItemSeparator())
	}

	menuItems = append(menuItems,
		fyne.NewMenuItem("Alarms", func() {
			db.showAlarmsWindow()
		}),
		fyne.NewMenuItem("Export Schedule", func() {
			db.exportSchedule()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			db.quit()
		}),
	)

	desk.SetSystemTrayMenu(fyne.NewMenu(appName, menuItems...))
}

type upcomingAlarm struct {
	alarm models.Alarm
	at    time.Time
}

// upcomingAlarms lists the next few armed wakes, soonest first.
func (db *Daybreak) upcomingAlarms(limit int) []upcomingAlarm {
	enabled, err := db.store.Enabled()
	if err != nil {
		db.log.Warn("listing enabled alarms failed", zap.Error(err))
		return nil
	}

	var upcoming []upcomingAlarm
	for _, a := range enabled {
		if at, ok := db.sched.Registry().ArmedAt(a.RequestCode()); ok {
			upcoming = append(upcoming, upcomingAlarm{alarm: a, at: at})
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].at.Before(upcoming[j].at)
	})
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// truncateString truncates a string to maxLen characters, adding "..." if needed
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

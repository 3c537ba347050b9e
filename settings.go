package main

import "fyne.io/fyne/v2"

// Settings are the UI-facing preferences, persisted through Fyne's
// preference store. Process-level settings live in pkg/config.
type Settings struct {
	AutoStart       bool
	HoldTimeSeconds int
}

func loadSettings(app fyne.App) *Settings {
	prefs := app.Preferences()
	return &Settings{
		AutoStart:       prefs.BoolWithFallback("auto_start", false),
		HoldTimeSeconds: prefs.IntWithFallback("hold_time_seconds", 3),
	}
}

func saveSettings(app fyne.App, s *Settings) {
	prefs := app.Preferences()
	prefs.SetBool("auto_start", s.AutoStart)
	prefs.SetInt("hold_time_seconds", s.HoldTimeSeconds)
}

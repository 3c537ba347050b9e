package main

import (
	"os"
	"path/filepath"

	"github.com/emersion/go-autostart"
)

// setupAutostart enables or disables launching Daybreak at login. An alarm
// clock that only runs when the user remembers to start it is not much of an
// alarm clock.
func setupAutostart(enable bool) error {
	execPath, err := os.Executable()
	if err != nil {
		return err
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return err
	}

	app := &autostart.App{
		Name:        "daybreak",
		DisplayName: appName,
		Exec:        []string{execPath},
	}

	if enable {
		if !app.IsEnabled() {
			return app.Enable()
		}
	} else {
		if app.IsEnabled() {
			return app.Disable()
		}
	}
	return nil
}

//go:build !darwin

package platform

// IsAppActive reports whether the process currently has focus. Other
// platforms raise windows without fighting the window manager, so this is
// always true.
func IsAppActive() bool {
	return true
}

// ActivateApp is a no-op outside macOS; Show/RequestFocus suffice there.
func ActivateApp() {
}

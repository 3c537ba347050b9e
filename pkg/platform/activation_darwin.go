//go:build darwin

// Package platform holds the small cgo shims Daybreak needs on macOS: hiding
// the Dock icon for a tray-resident app and pulling the process to the front
// when an alarm rings.
package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa
#import <Cocoa/Cocoa.h>

int
SetActivationPolicy(void) {
    [NSApp setActivationPolicy:NSApplicationActivationPolicyAccessory];
    return 0;
}
*/
import "C"

// SetActivationPolicy switches the app to accessory mode so it lives in the
// tray without a Dock icon.
func SetActivationPolicy() {
	C.SetActivationPolicy()
}

//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework AppKit
#import <Cocoa/Cocoa.h>
#import <AppKit/AppKit.h>

int isAppActive() {
    return [NSApp isActive] ? 1 : 0;
}

void activateApp() {
    [NSApp activateIgnoringOtherApps:YES];
}
*/
import "C"

// IsAppActive reports whether the process currently has focus.
func IsAppActive() bool {
	return C.isAppActive() == 1
}

// ActivateApp steals focus so the ring window lands in front of whatever the
// user is doing.
func ActivateApp() {
	C.activateApp()
}

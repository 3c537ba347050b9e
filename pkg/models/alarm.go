package models

import "fmt"

// requestCodeDiff offsets alarm ids into the request-code space so that a
// request code is never confused with a raw id (and code 0 stays unused).
const requestCodeDiff = 1000

// Alarm is a single alarm-clock entry as persisted by the store.
type Alarm struct {
	ID        int64  // assigned by the store on creation
	Hour      int    // 0..23
	Minute    int    // 0..59
	Repeat    Repeat // repeat policy
	AudioPath string // path to the WAV file to loop while ringing
	Remark    string // optional label, may be empty
	Enabled   bool
}

// RequestCode returns the wake-request identifier bound to this alarm.
// The mapping is a bijection; IDFromRequestCode inverts it.
func (a *Alarm) RequestCode() int {
	return RequestCode(a.ID)
}

// RequestCode maps an alarm id to its wake-request identifier.
func RequestCode(id int64) int {
	return int(id) + requestCodeDiff
}

// IDFromRequestCode recovers the alarm id from a wake-request identifier.
// Codes outside the valid range map to 0, which no stored alarm uses.
func IDFromRequestCode(code int) int64 {
	id := code - requestCodeDiff
	if id > 0 {
		return int64(id)
	}
	return 0
}

// TimeString formats the alarm's clock time as "HH:MM".
func (a *Alarm) TimeString() string {
	return fmt.Sprintf("%02d:%02d", a.Hour, a.Minute)
}

// Title returns the notification title: the remark, or the application name
// when the remark is empty.
func (a *Alarm) Title(appName string) string {
	if a.Remark != "" {
		return a.Remark
	}
	return appName
}

// Content returns the notification body shown when the alarm rings.
func (a *Alarm) Content() string {
	return fmt.Sprintf("Alarm time has arrived: %s", a.TimeString())
}

// Validate reports whether the alarm's clock time is within range.
func (a *Alarm) Validate() error {
	if a.Hour < 0 || a.Hour > 23 {
		return fmt.Errorf("hour %d out of range", a.Hour)
	}
	if a.Minute < 0 || a.Minute > 59 {
		return fmt.Errorf("minute %d out of range", a.Minute)
	}
	return nil
}

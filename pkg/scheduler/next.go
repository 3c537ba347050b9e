package scheduler

import "time"

// NextTrigger returns the next absolute trigger time for a clock alarm:
// today at hour:minute:00 when that instant has not passed yet, otherwise
// the same clock time one calendar day later. AddDate handles month and
// year rollover.
//
// The result is deliberately policy-agnostic. Weekday eligibility is checked
// when the wake fires, so alarms on sparse schedules wake and suppress one
// day at a time instead of jumping to the next eligible day.
func NextTrigger(hour, minute int, now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !candidate.Before(now) {
		return candidate
	}
	return candidate.AddDate(0, 0, 1)
}

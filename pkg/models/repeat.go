package models

import (
	"strings"
	"time"
)

// RepeatKind identifies how often an alarm repeats.
type RepeatKind string

const (
	RepeatOnce     RepeatKind = "once"     // fires a single time, then auto-disables
	RepeatEveryDay RepeatKind = "everyday" // fires every day
	RepeatWeekday  RepeatKind = "weekday"  // fires Monday through Friday
	RepeatCustom   RepeatKind = "custom"   // fires on an explicit weekday set
)

// Weekday codes follow the 1=Sunday .. 7=Saturday encoding.
const (
	WeekdaySunday    = 1
	WeekdayMonday    = 2
	WeekdayTuesday   = 3
	WeekdayWednesday = 4
	WeekdayThursday  = 5
	WeekdayFriday    = 6
	WeekdaySaturday  = 7
)

// Repeat is an alarm's repeat policy. Weekdays is only meaningful for the
// custom kind; an empty custom set is a configuration error that never fires.
type Repeat struct {
	Kind     RepeatKind `json:"kind"`
	Weekdays []int      `json:"weekdays,omitempty"`
}

// WeekdayInfo pairs a weekday code with its display names.
type WeekdayInfo struct {
	Code  int
	Name  string
	Alias string
}

// WeekdayChoices lists the selectable weekdays in canonical display order
// (Monday first), mirroring the order used by the editor UI.
var WeekdayChoices = []WeekdayInfo{
	{WeekdayMonday, "Monday", "Mon"},
	{WeekdayTuesday, "Tuesday", "Tue"},
	{WeekdayWednesday, "Wednesday", "Wed"},
	{WeekdayThursday, "Thursday", "Thu"},
	{WeekdayFriday, "Friday", "Fri"},
	{WeekdaySaturday, "Saturday", "Sat"},
	{WeekdaySunday, "Sunday", "Sun"},
}

func (r Repeat) IsOnce() bool     { return r.Kind == RepeatOnce }
func (r Repeat) IsEveryDay() bool { return r.Kind == RepeatEveryDay }
func (r Repeat) IsWeekday() bool  { return r.Kind == RepeatWeekday }
func (r Repeat) IsCustom() bool   { return r.Kind == RepeatCustom }

// IsEligible reports whether an alarm with this policy may ring on the given
// weekday code. Once is always eligible; the caller guarantees it only ever
// fires once by disabling the alarm afterwards.
func (r Repeat) IsEligible(weekday int) bool {
	switch r.Kind {
	case RepeatOnce, RepeatEveryDay:
		return true
	case RepeatWeekday:
		return weekday >= WeekdayMonday && weekday <= WeekdayFriday
	case RepeatCustom:
		for _, d := range r.Weekdays {
			if d == weekday {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// DisplayName renders the policy for list rows and the editor. Custom
// policies join the short aliases of the selected days in canonical order.
func (r Repeat) DisplayName() string {
	switch r.Kind {
	case RepeatOnce:
		return "Once"
	case RepeatEveryDay:
		return "Every day"
	case RepeatWeekday:
		return "Weekdays"
	case RepeatCustom:
		if len(r.Weekdays) == 0 {
			return "Custom"
		}
		selected := make(map[int]bool, len(r.Weekdays))
		for _, d := range r.Weekdays {
			selected[d] = true
		}
		aliases := make([]string, 0, len(r.Weekdays))
		for _, w := range WeekdayChoices {
			if selected[w.Code] {
				aliases = append(aliases, w.Alias)
			}
		}
		return strings.Join(aliases, " ")
	default:
		return string(r.Kind)
	}
}

// WeekdayCode converts a time.Weekday into the 1=Sunday..7=Saturday encoding.
func WeekdayCode(d time.Weekday) int {
	return int(d) + 1
}

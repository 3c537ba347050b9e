// Package export renders the alarm list as an iCalendar document, so a
// user's alarm schedule can be imported into a regular calendar client.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/borgmon/daybreak/pkg/models"
	"github.com/borgmon/daybreak/pkg/scheduler"
)

const productID = "-//borgmon//daybreak//EN"

// byDay maps weekday codes (1=Sunday..7=Saturday) to RRULE BYDAY tokens.
var byDay = map[int]string{
	models.WeekdaySunday:    "SU",
	models.WeekdayMonday:    "MO",
	models.WeekdayTuesday:   "TU",
	models.WeekdayWednesday: "WE",
	models.WeekdayThursday:  "TH",
	models.WeekdayFriday:    "FR",
	models.WeekdaySaturday:  "SA",
}

// WriteCalendar encodes enabled alarms as VEVENTs. Each event starts at the
// alarm's next occurrence relative to now and carries an RRULE matching the
// repeat policy. Disabled alarms and empty custom sets are skipped.
func WriteCalendar(w io.Writer, alarms []models.Alarm, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for i := range alarms {
		a := &alarms[i]
		if !a.Enabled {
			continue
		}
		if a.Repeat.IsCustom() && len(a.Repeat.Weekdays) == 0 {
			continue
		}
		cal.Children = append(cal.Children, alarmEvent(a, now).Component)
	}

	return ical.NewEncoder(w).Encode(cal)
}

func alarmEvent(a *models.Alarm, now time.Time) *ical.Event {
	start := scheduler.NextTrigger(a.Hour, a.Minute, now)

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, fmt.Sprintf("daybreak-alarm-%d", a.ID))
	event.Props.SetText(ical.PropSummary, a.Title("Daybreak"))
	event.Props.SetDateTime(ical.PropDateTimeStamp, now)
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(time.Minute))

	if rule := recurrenceRule(a.Repeat); rule != "" {
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = rule
		event.Props.Set(prop)
	}
	return event
}

// recurrenceRule renders the repeat policy as an RRULE value. Once alarms
// have no rule.
func recurrenceRule(r models.Repeat) string {
	switch r.Kind {
	case models.RepeatEveryDay:
		return "FREQ=DAILY"
	case models.RepeatWeekday:
		return "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"
	case models.RepeatCustom:
		selected := make(map[int]bool, len(r.Weekdays))
		for _, d := range r.Weekdays {
			selected[d] = true
		}
		var days []string
		for _, w := range models.WeekdayChoices {
			if selected[w.Code] {
				days = append(days, byDay[w.Code])
			}
		}
		if len(days) == 0 {
			return ""
		}
		return "FREQ=WEEKLY;BYDAY=" + strings.Join(days, ",")
	default:
		return ""
	}
}

package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/borgmon/daybreak/pkg/models"
)

var repeatChoices = []struct {
	Label string
	Kind  models.RepeatKind
}{
	{"Once", models.RepeatOnce},
	{"Every day", models.RepeatEveryDay},
	{"Weekdays", models.RepeatWeekday},
	{"Custom", models.RepeatCustom},
}

// showAlarmForm opens the add/edit dialog. A nil alarm means a new one.
func (aw *AlarmsWindow) showAlarmForm(existing *models.Alarm) {
	alarm := models.Alarm{
		Hour:    7,
		Minute:  0,
		Repeat:  models.Repeat{Kind: models.RepeatOnce},
		Enabled: true,
	}
	if existing != nil {
		alarm = *existing
	}

	hourOptions := make([]string, 24)
	for i := range hourOptions {
		hourOptions[i] = fmt.Sprintf("%02d", i)
	}
	minuteOptions := make([]string, 60)
	for i := range minuteOptions {
		minuteOptions[i] = fmt.Sprintf("%02d", i)
	}

	hourSelect := widget.NewSelect(hourOptions, nil)
	hourSelect.SetSelected(fmt.Sprintf("%02d", alarm.Hour))
	minuteSelect := widget.NewSelect(minuteOptions, nil)
	minuteSelect.SetSelected(fmt.Sprintf("%02d", alarm.Minute))

	selected := make(map[int]bool, len(alarm.Repeat.Weekdays))
	for _, d := range alarm.Repeat.Weekdays {
		selected[d] = true
	}
	weekdayChecks := make([]*widget.Check, len(models.WeekdayChoices))
	weekdayBox := container.NewHBox()
	for i, choice := range models.WeekdayChoices {
		code := choice.Code
		check := widget.NewCheck(choice.Alias, nil)
		check.SetChecked(selected[code])
		if alarm.Repeat.Kind != models.RepeatCustom {
			check.Disable()
		}
		weekdayChecks[i] = check
		weekdayBox.Add(check)
	}

	repeatLabels := make([]string, len(repeatChoices))
	for i, c := range repeatChoices {
		repeatLabels[i] = c.Label
	}
	repeatSelect := widget.NewSelect(repeatLabels, func(value string) {
		custom := value == "Custom"
		for _, check := range weekdayChecks {
			if custom {
				check.Enable()
			} else {
				check.Disable()
			}
		}
	})
	for _, c := range repeatChoices {
		if c.Kind == alarm.Repeat.Kind {
			repeatSelect.SetSelected(c.Label)
		}
	}

	audioEntry := widget.NewEntry()
	audioEntry.SetPlaceHolder("Default sound")
	audioEntry.SetText(alarm.AudioPath)
	browseButton := widget.NewButton("Browse", func() {
		picker := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			defer rc.Close()
			audioEntry.SetText(rc.URI().Path())
		}, aw.window)
		picker.SetFilter(audioFileFilter())
		picker.Show()
	})
	audioRow := container.NewBorder(nil, nil, nil, browseButton, audioEntry)

	remarkEntry := widget.NewEntry()
	remarkEntry.SetPlaceHolder("Label shown when ringing")
	remarkEntry.SetText(alarm.Remark)

	items := []*widget.FormItem{
		widget.NewFormItem("Hour", hourSelect),
		widget.NewFormItem("Minute", minuteSelect),
		widget.NewFormItem("Repeat", repeatSelect),
		widget.NewFormItem("Days", weekdayBox),
		widget.NewFormItem("Sound", audioRow),
		widget.NewFormItem("Remark", remarkEntry),
	}

	title := "Add Alarm"
	confirm := "Create"
	if existing != nil {
		title = "Edit Alarm"
		confirm = "Save"
	}

	dialog.ShowForm(title, confirm, "Cancel", items, func(confirmed bool) {
		if !confirmed {
			return
		}

		fmt.Sscanf(hourSelect.Selected, "%d", &alarm.Hour)
		fmt.Sscanf(minuteSelect.Selected, "%d", &alarm.Minute)

		for _, c := range repeatChoices {
			if c.Label == repeatSelect.Selected {
				alarm.Repeat.Kind = c.Kind
			}
		}
		alarm.Repeat.Weekdays = nil
		if alarm.Repeat.Kind == models.RepeatCustom {
			for i, check := range weekdayChecks {
				if check.Checked {
					alarm.Repeat.Weekdays = append(alarm.Repeat.Weekdays, models.WeekdayChoices[i].Code)
				}
			}
			if len(alarm.Repeat.Weekdays) == 0 {
				dialog.ShowError(fmt.Errorf("select at least one day for a custom repeat"), aw.window)
				return
			}
		}

		alarm.AudioPath = audioEntry.Text
		alarm.Remark = remarkEntry.Text

		var err error
		if existing != nil {
			err = aw.db.sched.Update(&alarm)
		} else {
			err = aw.db.sched.Create(&alarm)
		}
		if err != nil {
			dialog.ShowError(err, aw.window)
		}
	}, aw.window)
}

func audioFileFilter() storage.FileFilter {
	return storage.NewExtensionFileFilter([]string{".wav"})
}

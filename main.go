package main

import (
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"go.uber.org/zap"

	"github.com/borgmon/daybreak/pkg/audio"
	"github.com/borgmon/daybreak/pkg/config"
	"github.com/borgmon/daybreak/pkg/logging"
	"github.com/borgmon/daybreak/pkg/notify"
	"github.com/borgmon/daybreak/pkg/platform"
	"github.com/borgmon/daybreak/pkg/scheduler"
	"github.com/borgmon/daybreak/pkg/store"
)

const appName = "Daybreak"

type Daybreak struct {
	app      fyne.App
	log      *zap.Logger
	settings *Settings

	store      *store.AlarmStore
	audio      *audio.Manager
	wakeSource *scheduler.TickerWakeSource
	sched      *scheduler.Scheduler

	alarmsWindow *AlarmsWindow
}

func main() {
	cfg, err := config.Load(os.Getenv("DAYBREAK_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "daybreak:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "daybreak:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db := &Daybreak{
		app: app.NewWithID("com.borgmon.daybreak"),
		log: logger,
	}
	if err := db.initialize(cfg); err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	db.run()
}

func (db *Daybreak) initialize(cfg *config.Config) error {
	db.settings = loadSettings(db.app)

	// Sync the login item with the saved setting on every startup.
	if err := setupAutostart(db.settings.AutoStart); err != nil {
		db.log.Warn("autostart setup failed", zap.Error(err))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.Open(cfg.DatabasePath, db.log)
	if err != nil {
		return err
	}
	db.store = st

	db.audio = audio.NewManager(db.log)
	notifier := notify.NewFyneNotifier(db.app, db.log)

	db.wakeSource = scheduler.NewTickerWakeSource(cfg.Engine.WakeScanInterval, db.log)
	db.sched = scheduler.New(st, db.wakeSource, notifier, db.audio, db.log, scheduler.Options{
		AppName:    appName,
		GraceDelay: cfg.Engine.GraceDelay,
	})
	db.wakeSource.Start()

	// Pending wakes do not survive a restart; rebuild them from the store.
	if err := db.sched.RearmAll(); err != nil {
		db.log.Error("boot re-arm failed", zap.Error(err))
	}

	db.setupSystemTray()
	go db.watchTriggers()
	go db.watchStore()

	return nil
}

func (db *Daybreak) run() {
	db.app.Lifecycle().SetOnStarted(func() {
		platform.SetActivationPolicy()
	})
	db.app.Run()
}

// watchTriggers raises the full-screen dismiss window whenever an alarm
// rings.
func (db *Daybreak) watchTriggers() {
	for ev := range db.sched.Triggered() {
		alarm := ev.Alarm
		db.log.Info("showing ring window", zap.Int64("id", alarm.ID))
		fyne.Do(func() {
			NewAlarmWindow(db.app, db.sched, alarm, db.settings.HoldTimeSeconds, db.log).Show()
			db.updateSystemTrayMenu()
		})
	}
}

// watchStore keeps the tray's upcoming-alarm section current.
func (db *Daybreak) watchStore() {
	for range db.store.Subscribe() {
		fyne.Do(db.updateSystemTrayMenu)
	}
}

func (db *Daybreak) showAlarmsWindow() {
	if db.alarmsWindow != nil && db.alarmsWindow.window != nil {
		db.alarmsWindow.window.RequestFocus()
		db.alarmsWindow.window.Show()
		return
	}

	db.alarmsWindow = NewAlarmsWindow(db, func() {
		db.alarmsWindow = nil
	})
	db.alarmsWindow.Show()
}

func (db *Daybreak) quit() {
	db.wakeSource.Stop()
	db.audio.Stop()
	if err := db.store.Close(); err != nil {
		db.log.Warn("store close failed", zap.Error(err))
	}
	db.app.Quit()
}

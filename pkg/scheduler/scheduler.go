package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/borgmon/daybreak/pkg/models"
)

// AlarmStore is the persistence collaborator. Get returns store.ErrNotFound
// (wrapped or not) when the id is unknown; the wake path treats any error as
// "record missing" and stays quiet.
type AlarmStore interface {
	Create(a *models.Alarm) error
	Get(id int64) (*models.Alarm, error)
	Update(a *models.Alarm) error
	Delete(id int64) error
	Enabled() ([]models.Alarm, error)
}

// Notifier presents and clears desktop notifications keyed by request code.
type Notifier interface {
	Show(requestCode int, title, body string)
	Hide(requestCode int)
}

// AudioPlayer is the single shared playback channel. Play supersedes any
// sound currently playing.
type AudioPlayer interface {
	Play(path string, loop bool) error
	Stop()
}

// TriggerEvent is emitted whenever an alarm actually rings, so the UI can
// raise its dismiss window.
type TriggerEvent struct {
	Alarm models.Alarm
	At    time.Time
}

// Options tune a Scheduler. Zero values fall back to sane defaults, except
// GraceDelay: zero means "re-arm synchronously", which tests rely on.
type Options struct {
	AppName    string           // notification title fallback
	GraceDelay time.Duration    // pause before re-arming a repeating alarm that just rang
	Now        func() time.Time // clock override for tests
}

// DefaultGraceDelay keeps a repeating alarm from re-entering its own trigger
// window immediately after ringing.
const DefaultGraceDelay = 3 * time.Second

// Scheduler drives the alarm lifecycle: it arms wakes for enabled alarms,
// and on each wake reloads the record, re-checks weekday eligibility, rings
// or suppresses, and re-arms repeating alarms. All decisions for one alarm
// id are serialized; different alarms proceed independently.
type Scheduler struct {
	store    AlarmStore
	registry *Registry
	notifier Notifier
	audio    AudioPlayer
	log      *zap.Logger

	appName string
	grace   time.Duration
	now     func() time.Time

	lockMu sync.Mutex
	locks  map[int64]*sync.Mutex

	events chan TriggerEvent
}

// New builds a Scheduler over its collaborators and hooks it up to the wake
// source. The caller still has to start the source and call RearmAll.
func New(store AlarmStore, source WakeSource, notifier Notifier, audio AudioPlayer, log *zap.Logger, opts Options) *Scheduler {
	if opts.AppName == "" {
		opts.AppName = "Daybreak"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Scheduler{
		store:    store,
		notifier: notifier,
		audio:    audio,
		log:      log,
		appName:  opts.AppName,
		grace:    opts.GraceDelay,
		now:      opts.Now,
		locks:    make(map[int64]*sync.Mutex),
		events:   make(chan TriggerEvent, 8),
	}
	s.registry = NewRegistry(source, s.handleWake, log)
	return s
}

// Triggered exposes the stream of ring events for the UI layer.
func (s *Scheduler) Triggered() <-chan TriggerEvent {
	return s.events
}

// Registry exposes the timer registry, mainly for the tray's "next alarm"
// display.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// Create persists a new alarm and arms its first wake when enabled.
// Errors propagate to the caller; the alarm is not scheduled on failure.
func (s *Scheduler) Create(a *models.Alarm) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.store.Create(a); err != nil {
		return err
	}
	mu := s.lockFor(a.ID)
	mu.Lock()
	defer mu.Unlock()
	if a.Enabled {
		s.armNext(a)
	}
	s.log.Info("alarm created",
		zap.Int64("id", a.ID),
		zap.String("time", a.TimeString()),
		zap.String("repeat", a.Repeat.DisplayName()))
	return nil
}

// Update persists an edit and re-arms or cancels accordingly. The enabled
// flag written here is what a concurrently firing wake will observe on its
// reload, which is what makes disable-while-pending race safe.
func (s *Scheduler) Update(a *models.Alarm) error {
	if err := a.Validate(); err != nil {
		return err
	}
	mu := s.lockFor(a.ID)
	mu.Lock()
	defer mu.Unlock()
	if err := s.store.Update(a); err != nil {
		return err
	}
	if a.Enabled {
		s.armNext(a)
	} else {
		s.silence(a)
	}
	return nil
}

// Delete cancels any pending wake, silences the alarm if it is ringing, and
// removes the record.
func (s *Scheduler) Delete(a *models.Alarm) error {
	mu := s.lockFor(a.ID)
	mu.Lock()
	defer mu.Unlock()
	s.silence(a)
	if err := s.store.Delete(a.ID); err != nil {
		return err
	}
	s.log.Info("alarm deleted", zap.Int64("id", a.ID))
	return nil
}

// Dismiss handles the user closing the ring window. A once alarm is disabled
// outright; a repeating alarm only has its sound and notification cleared,
// leaving the next armed cycle untouched.
func (s *Scheduler) Dismiss(a *models.Alarm) error {
	if a.Repeat.IsOnce() {
		off := *a
		off.Enabled = false
		return s.Update(&off)
	}
	s.notifier.Hide(a.RequestCode())
	s.audio.Stop()
	return nil
}

// RearmAll reconstructs wakes for every enabled alarm. Pending-timer state
// does not survive a restart; it is fully derived from the store.
func (s *Scheduler) RearmAll() error {
	alarms, err := s.store.Enabled()
	if err != nil {
		return err
	}
	for i := range alarms {
		a := alarms[i]
		mu := s.lockFor(a.ID)
		mu.Lock()
		s.armNext(&a)
		mu.Unlock()
	}
	s.log.Info("alarms re-armed", zap.Int("count", len(alarms)))
	return nil
}

// silence cancels the pending wake and clears any in-progress notification
// and playback for the alarm.
func (s *Scheduler) silence(a *models.Alarm) {
	s.registry.Cancel(a.RequestCode())
	s.notifier.Hide(a.RequestCode())
	s.audio.Stop()
}

// armNext arms the alarm's next calendar occurrence, retrying once on
// registration failure. Persistent failure is logged and the alarm stays
// idle; it silently fails to repeat.
func (s *Scheduler) armNext(a *models.Alarm) {
	at := NextTrigger(a.Hour, a.Minute, s.now())
	code := a.RequestCode()
	err := s.registry.Arm(code, at)
	if err != nil {
		s.log.Warn("wake registration failed, retrying",
			zap.Int64("id", a.ID), zap.Error(err))
		err = s.registry.Arm(code, at)
	}
	if err != nil {
		s.log.Error("wake registration failed, alarm will not fire",
			zap.Int64("id", a.ID), zap.Error(err))
	}
}

// handleWake is the trigger dispatcher. It runs on the wake source's
// goroutine, one invocation per delivered wake.
func (s *Scheduler) handleWake(requestCode int) {
	id := models.IDFromRequestCode(requestCode)
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	// Never trust data captured at arm time: the record may have been
	// edited, disabled, or deleted while the wake was pending.
	a, err := s.store.Get(id)
	if err != nil {
		s.log.Warn("alarm reload failed, dropping wake",
			zap.Int64("id", id), zap.Error(err))
		return
	}
	if !a.Enabled {
		s.log.Debug("alarm disabled, dropping wake", zap.Int64("id", id))
		return
	}

	now := s.now()
	weekday := models.WeekdayCode(now.Weekday())
	if !a.Repeat.IsEligible(weekday) {
		if a.Repeat.IsCustom() && len(a.Repeat.Weekdays) == 0 {
			s.log.Warn("custom repeat with no weekdays never fires",
				zap.Int64("id", id))
		}
		// Skip today, check again tomorrow at the same clock time.
		if !a.Repeat.IsOnce() {
			s.armNext(a)
		}
		return
	}

	s.ring(a, now)

	if a.Repeat.IsOnce() {
		a.Enabled = false
		if err := s.store.Update(a); err != nil {
			s.log.Error("failed to disable once alarm after ringing",
				zap.Int64("id", id), zap.Error(err))
		}
		return
	}

	if s.grace <= 0 {
		s.armNext(a)
		return
	}
	// Re-arm after a short pause so a slow clock cannot refire the same
	// minute in a tight loop. The record is reloaded once the pause ends.
	time.AfterFunc(s.grace, func() { s.rearmAfterGrace(id) })
}

func (s *Scheduler) rearmAfterGrace(id int64) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	a, err := s.store.Get(id)
	if err != nil {
		s.log.Warn("alarm gone before re-arm", zap.Int64("id", id), zap.Error(err))
		return
	}
	if a.Enabled {
		s.armNext(a)
	}
}

// ring performs the side effects of an eligible trigger.
func (s *Scheduler) ring(a *models.Alarm, at time.Time) {
	code := a.RequestCode()
	s.notifier.Show(code, a.Title(s.appName), a.Content())
	if a.AudioPath != "" {
		if err := s.audio.Play(a.AudioPath, true); err != nil {
			s.log.Error("audio playback failed",
				zap.Int64("id", a.ID),
				zap.String("path", a.AudioPath),
				zap.Error(err))
		}
	}
	s.log.Info("alarm triggered",
		zap.Int64("id", a.ID),
		zap.String("time", a.TimeString()))

	select {
	case s.events <- TriggerEvent{Alarm: *a, At: at}:
	default:
		s.log.Warn("trigger event dropped, UI not keeping up",
			zap.Int64("id", a.ID))
	}
}

func (s *Scheduler) lockFor(id int64) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	return mu
}

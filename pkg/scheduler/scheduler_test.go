package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/borgmon/daybreak/pkg/models"
)

var errNotFound = errors.New("alarm not found")

type fakeStore struct {
	mu     sync.Mutex
	alarms map[int64]models.Alarm
	nextID int64
	getErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{alarms: make(map[int64]models.Alarm)}
}

func (f *fakeStore) Create(a *models.Alarm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	f.alarms[a.ID] = *a
	return nil
}

func (f *fakeStore) Get(id int64) (*models.Alarm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.alarms[id]
	if !ok {
		return nil, errNotFound
	}
	return &a, nil
}

func (f *fakeStore) Update(a *models.Alarm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.alarms[a.ID]; !ok {
		return errNotFound
	}
	f.alarms[a.ID] = *a
	return nil
}

func (f *fakeStore) Delete(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.alarms, id)
	return nil
}

func (f *fakeStore) Enabled() ([]models.Alarm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Alarm
	for _, a := range f.alarms {
		if a.Enabled {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) get(id int64) models.Alarm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alarms[id]
}

type fakeNotifier struct {
	mu    sync.Mutex
	shown []int
	hides []int
}

func (f *fakeNotifier) Show(requestCode int, title, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shown = append(f.shown, requestCode)
}

func (f *fakeNotifier) Hide(requestCode int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hides = append(f.hides, requestCode)
}

func (f *fakeNotifier) shownCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.shown)
}

type fakeAudio struct {
	mu    sync.Mutex
	plays []string
	stops int
}

func (f *fakeAudio) Play(path string, loop bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, path)
	return nil
}

func (f *fakeAudio) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeAudio) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plays)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type fixture struct {
	store    *fakeStore
	source   *fakeWakeSource
	notifier *fakeNotifier
	audio    *fakeAudio
	clock    *fakeClock
	sched    *Scheduler
}

// newFixture builds an engine with GraceDelay zero, which re-arms
// synchronously inside the wake handler.
func newFixture(now time.Time) *fixture {
	return newFixtureWithGrace(now, 0)
}

func newFixtureWithGrace(now time.Time, grace time.Duration) *fixture {
	f := &fixture{
		store:    newFakeStore(),
		source:   newFakeWakeSource(),
		notifier: &fakeNotifier{},
		audio:    &fakeAudio{},
		clock:    &fakeClock{t: now},
	}
	f.sched = New(f.store, f.source, f.notifier, f.audio, zap.NewNop(), Options{
		Now:        f.clock.Now,
		GraceDelay: grace,
	})
	return f
}

// Monday 2024-03-18.
var monday = time.Date(2024, 3, 18, 7, 0, 0, 0, time.Local)

func TestCreate_ArmsFirstWake(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}
	require.NoError(t, f.sched.Create(a))
	require.NotZero(t, a.ID)

	at, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 18, 7, 30, 0, 0, time.Local), at)
}

func TestCreate_DisabledAlarmNotArmed(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatOnce}}
	require.NoError(t, f.sched.Create(a))

	_, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	assert.False(t, ok)
}

func TestCreate_InvalidTimeRejected(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 24, Minute: 0, Repeat: models.Repeat{Kind: models.RepeatOnce}, Enabled: true}
	assert.Error(t, f.sched.Create(a))
}

func TestFire_EveryDayEndToEnd(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{
		Hour: 7, Minute: 30,
		Repeat:    models.Repeat{Kind: models.RepeatEveryDay},
		AudioPath: "chime.wav",
		Remark:    "Wake up",
		Enabled:   true,
	}
	require.NoError(t, f.sched.Create(a))

	f.clock.Set(time.Date(2024, 3, 18, 7, 30, 2, 0, time.Local))
	f.source.fire(a.RequestCode())

	assert.Equal(t, []int{a.RequestCode()}, f.notifier.shown)
	assert.Equal(t, []string{"chime.wav"}, f.audio.plays)

	select {
	case ev := <-f.sched.Triggered():
		assert.Equal(t, a.ID, ev.Alarm.ID)
	default:
		t.Fatal("expected a trigger event")
	}

	// Re-armed for tomorrow, same clock time.
	at, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 19, 7, 30, 0, 0, time.Local), at)
}

func TestFire_RepeatingRearmsAfterGracePause(t *testing.T) {
	f := newFixtureWithGrace(monday, 50*time.Millisecond)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}
	require.NoError(t, f.sched.Create(a))

	f.clock.Set(time.Date(2024, 3, 18, 7, 30, 2, 0, time.Local))
	f.source.fire(a.RequestCode())

	// The wake handler returns with nothing armed; the re-arm happens
	// only after the pause.
	_, armed := f.sched.Registry().ArmedAt(a.RequestCode())
	assert.False(t, armed)

	tomorrow := time.Date(2024, 3, 19, 7, 30, 0, 0, time.Local)
	require.Eventually(t, func() bool {
		at, ok := f.sched.Registry().ArmedAt(a.RequestCode())
		return ok && at.Equal(tomorrow)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFire_DisabledDuringGracePauseStaysIdle(t *testing.T) {
	f := newFixtureWithGrace(monday, 50*time.Millisecond)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}
	require.NoError(t, f.sched.Create(a))

	f.clock.Set(time.Date(2024, 3, 18, 7, 30, 2, 0, time.Local))
	f.source.fire(a.RequestCode())

	// Disable the record while the pause is pending; the re-arm reloads
	// and must honor it.
	got := f.store.get(a.ID)
	got.Enabled = false
	require.NoError(t, f.store.Update(&got))

	time.Sleep(200 * time.Millisecond)
	_, armed := f.sched.Registry().ArmedAt(a.RequestCode())
	assert.False(t, armed)
}

func TestFire_OnceDisablesAndStaysIdle(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatOnce}, Enabled: true}
	require.NoError(t, f.sched.Create(a))

	f.clock.Set(time.Date(2024, 3, 18, 7, 30, 1, 0, time.Local))
	f.source.fire(a.RequestCode())

	assert.Equal(t, 1, f.notifier.shownCount())
	assert.False(t, f.store.get(a.ID).Enabled)

	_, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	assert.False(t, ok, "once alarm must not be re-armed")
}

func TestFire_DisabledConcurrentlyIsSilent(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}
	require.NoError(t, f.sched.Create(a))

	// Disable behind the scheduler's back, as a concurrent writer would.
	// The dispatcher's reload must observe the flag and drop the wake.
	off := f.store.get(a.ID)
	off.Enabled = false
	require.NoError(t, f.store.Update(&off))

	f.clock.Set(time.Date(2024, 3, 18, 7, 30, 1, 0, time.Local))
	f.source.fire(a.RequestCode())

	assert.Zero(t, f.notifier.shownCount())
	assert.Zero(t, f.audio.playCount())
	_, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	assert.False(t, ok)
}

func TestFire_DeletedRecordIsSilent(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}
	require.NoError(t, f.sched.Create(a))
	require.NoError(t, f.store.Delete(a.ID))

	f.clock.Set(time.Date(2024, 3, 18, 7, 30, 1, 0, time.Local))
	f.source.fire(a.RequestCode())

	assert.Zero(t, f.notifier.shownCount())
}

func TestFire_StorageFailureTreatedAsMissing(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}
	require.NoError(t, f.sched.Create(a))

	f.store.getErr = errors.New("disk io")
	f.clock.Set(time.Date(2024, 3, 18, 7, 30, 1, 0, time.Local))
	f.source.fire(a.RequestCode())

	assert.Zero(t, f.notifier.shownCount())
	assert.Zero(t, f.audio.playCount())
}

func TestFire_CustomSkipsIneligibleDayButRearms(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{
		Hour: 7, Minute: 30,
		Repeat: models.Repeat{
			Kind:     models.RepeatCustom,
			Weekdays: []int{models.WeekdayMonday, models.WeekdayWednesday, models.WeekdayFriday},
		},
		Enabled: true,
	}
	require.NoError(t, f.sched.Create(a))

	// Tuesday: not in the set. No ring, but the cycle continues tomorrow.
	f.clock.Set(time.Date(2024, 3, 19, 7, 30, 1, 0, time.Local))
	f.source.fire(a.RequestCode())

	assert.Zero(t, f.notifier.shownCount())
	assert.Zero(t, f.audio.playCount())

	at, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 20, 7, 30, 0, 0, time.Local), at)

	// Wednesday is in the set: it rings.
	f.clock.Set(time.Date(2024, 3, 20, 7, 30, 1, 0, time.Local))
	f.source.fire(a.RequestCode())
	assert.Equal(t, 1, f.notifier.shownCount())
}

func TestFire_WeekdayPolicySkipsWeekend(t *testing.T) {
	f := newFixture(time.Date(2024, 3, 16, 6, 0, 0, 0, time.Local)) // Saturday
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatWeekday}, Enabled: true}
	require.NoError(t, f.sched.Create(a))

	f.clock.Set(time.Date(2024, 3, 16, 7, 30, 1, 0, time.Local))
	f.source.fire(a.RequestCode())

	assert.Zero(t, f.notifier.shownCount())
	at, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 17, 7, 30, 0, 0, time.Local), at)
}

func TestFire_EmptyCustomNeverRingsButKeepsCycling(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatCustom}, Enabled: true}
	require.NoError(t, f.sched.Create(a))

	// The scheduler is policy-agnostic: a wake is armed regardless.
	_, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	require.True(t, ok)

	// Every delivery is suppressed, and the next day is armed again.
	for day := 18; day < 25; day++ {
		f.clock.Set(time.Date(2024, 3, day, 7, 30, 1, 0, time.Local))
		f.source.fire(a.RequestCode())
	}
	assert.Zero(t, f.notifier.shownCount())
	_, ok = f.sched.Registry().ArmedAt(a.RequestCode())
	assert.True(t, ok)
}

func TestUpdate_DisableCancelsPendingWake(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}
	require.NoError(t, f.sched.Create(a))

	off := *a
	off.Enabled = false
	require.NoError(t, f.sched.Update(&off))

	_, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	assert.False(t, ok)
	assert.Equal(t, 1, f.audio.stops, "disable also stops playback")
}

func TestUpdate_EditReplacesPendingWake(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}
	require.NoError(t, f.sched.Create(a))

	edited := *a
	edited.Hour = 9
	require.NoError(t, f.sched.Update(&edited))

	at, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 18, 9, 0, 0, 0, time.Local), at)
	assert.Equal(t, 1, f.source.pendingCount(), "edit replaces, never adds")
}

func TestDelete_CancelsAndRemoves(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}
	require.NoError(t, f.sched.Create(a))
	require.NoError(t, f.sched.Delete(a))

	_, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	assert.False(t, ok)
	_, err := f.store.Get(a.ID)
	assert.Error(t, err)
}

func TestDismiss_OnceDisables(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatOnce}, Enabled: true}
	require.NoError(t, f.sched.Create(a))

	require.NoError(t, f.sched.Dismiss(a))
	assert.False(t, f.store.get(a.ID).Enabled)
	_, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	assert.False(t, ok)
}

func TestDismiss_RepeatingOnlySilences(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}
	require.NoError(t, f.sched.Create(a))

	require.NoError(t, f.sched.Dismiss(a))
	assert.True(t, f.store.get(a.ID).Enabled)
	assert.Equal(t, 1, f.audio.stops)

	// The next armed cycle is untouched.
	_, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	assert.True(t, ok)
}

func TestRearmAll_ReconstructsFromStore(t *testing.T) {
	f := newFixture(monday)
	enabled := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}
	disabled := &models.Alarm{Hour: 8, Minute: 0, Repeat: models.Repeat{Kind: models.RepeatOnce}}
	require.NoError(t, f.store.Create(enabled))
	require.NoError(t, f.store.Create(disabled))

	require.NoError(t, f.sched.RearmAll())

	_, ok := f.sched.Registry().ArmedAt(enabled.RequestCode())
	assert.True(t, ok)
	_, ok = f.sched.Registry().ArmedAt(disabled.RequestCode())
	assert.False(t, ok)
}

func TestRearm_RetriesOnceOnRegistrationFailure(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}

	f.source.failNext = 1
	require.NoError(t, f.sched.Create(a))

	// First attempt failed, the retry landed.
	at, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 18, 7, 30, 0, 0, time.Local), at)
}

func TestRearm_PersistentFailureDegradesSilently(t *testing.T) {
	f := newFixture(monday)
	a := &models.Alarm{Hour: 7, Minute: 30, Repeat: models.Repeat{Kind: models.RepeatEveryDay}, Enabled: true}

	f.source.failNext = -1
	require.NoError(t, f.sched.Create(a), "creation itself succeeds")

	_, ok := f.sched.Registry().ArmedAt(a.RequestCode())
	assert.False(t, ok, "alarm stays idle after both attempts fail")
}

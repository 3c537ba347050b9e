package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/borgmon/daybreak/pkg/models"
)

// ErrNotFound is returned when no alarm exists for the requested id.
var ErrNotFound = errors.New("alarm not found")

const schema = `
CREATE TABLE IF NOT EXISTS alarms (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	hour         INTEGER NOT NULL,
	minute       INTEGER NOT NULL,
	repeat_kind  TEXT    NOT NULL,
	weekdays     TEXT    NOT NULL DEFAULT '',
	audio_path   TEXT    NOT NULL DEFAULT '',
	remark       TEXT    NOT NULL DEFAULT '',
	enabled      INTEGER NOT NULL DEFAULT 0
);
`

// AlarmStore persists alarms in a local sqlite database and broadcasts a
// full-list snapshot to subscribers after every mutation, so the UI renders
// from immutable snapshots instead of shared mutable state.
type AlarmStore struct {
	db  *sql.DB
	log *zap.Logger

	mu   sync.Mutex
	subs []chan []models.Alarm
}

// Open opens (creating if necessary) the alarm database at path.
func Open(path string, log *zap.Logger) (*AlarmStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open alarm database: %w", err)
	}
	// A single writer keeps mutation+broadcast ordering simple.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create alarm schema: %w", err)
	}
	return &AlarmStore{db: db, log: log}, nil
}

// Close closes the database and all subscriber channels.
func (s *AlarmStore) Close() error {
	s.mu.Lock()
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	s.mu.Unlock()
	return s.db.Close()
}

// Create inserts the alarm and fills in its assigned id.
func (s *AlarmStore) Create(a *models.Alarm) error {
	res, err := s.db.Exec(`
		INSERT INTO alarms (hour, minute, repeat_kind, weekdays, audio_path, remark, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Hour, a.Minute, string(a.Repeat.Kind), encodeWeekdays(a.Repeat.Weekdays),
		a.AudioPath, a.Remark, boolToInt(a.Enabled))
	if err != nil {
		return fmt.Errorf("insert alarm: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted alarm id: %w", err)
	}
	a.ID = id
	s.broadcast()
	return nil
}

// Get returns the alarm with the given id, or ErrNotFound.
func (s *AlarmStore) Get(id int64) (*models.Alarm, error) {
	row := s.db.QueryRow(`
		SELECT id, hour, minute, repeat_kind, weekdays, audio_path, remark, enabled
		FROM alarms WHERE id = ?`, id)
	a, err := scanAlarm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load alarm %d: %w", id, err)
	}
	return a, nil
}

// Update rewrites the alarm record. Updating an unknown id is ErrNotFound.
func (s *AlarmStore) Update(a *models.Alarm) error {
	res, err := s.db.Exec(`
		UPDATE alarms
		SET hour = ?, minute = ?, repeat_kind = ?, weekdays = ?, audio_path = ?, remark = ?, enabled = ?
		WHERE id = ?`,
		a.Hour, a.Minute, string(a.Repeat.Kind), encodeWeekdays(a.Repeat.Weekdays),
		a.AudioPath, a.Remark, boolToInt(a.Enabled), a.ID)
	if err != nil {
		return fmt.Errorf("update alarm %d: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update alarm %d: %w", a.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.broadcast()
	return nil
}

// Delete removes the alarm. Deleting an unknown id is a no-op.
func (s *AlarmStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM alarms WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete alarm %d: %w", id, err)
	}
	s.broadcast()
	return nil
}

// List returns all alarms ordered by clock time, then id.
func (s *AlarmStore) List() ([]models.Alarm, error) {
	return s.query(`
		SELECT id, hour, minute, repeat_kind, weekdays, audio_path, remark, enabled
		FROM alarms ORDER BY hour, minute, id`)
}

// Enabled returns only the alarms that should have a pending wake.
func (s *AlarmStore) Enabled() ([]models.Alarm, error) {
	return s.query(`
		SELECT id, hour, minute, repeat_kind, weekdays, audio_path, remark, enabled
		FROM alarms WHERE enabled = 1 ORDER BY hour, minute, id`)
}

// Subscribe returns a channel receiving the full alarm list after every
// mutation, primed with the current state. Slow receivers only ever lag by
// one snapshot: a pending snapshot is replaced, never queued behind.
func (s *AlarmStore) Subscribe() <-chan []models.Alarm {
	ch := make(chan []models.Alarm, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	snapshot, err := s.List()
	if err != nil {
		return ch
	}
	// The priming send must not block: a broadcast may have slipped in
	// since the append above, and whatever it buffered is newer anyway.
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case ch <- snapshot:
	default:
	}
	return ch
}

// Unsubscribe removes a channel handed out by Subscribe and closes it.
func (s *AlarmStore) Unsubscribe(ch <-chan []models.Alarm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub == ch {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

func (s *AlarmStore) broadcast() {
	snapshot, err := s.List()
	if err != nil {
		s.log.Warn("snapshot for subscribers failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale pending snapshot and replace it.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

func (s *AlarmStore) query(q string) ([]models.Alarm, error) {
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("query alarms: %w", err)
	}
	defer rows.Close()

	var alarms []models.Alarm
	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alarm row: %w", err)
		}
		alarms = append(alarms, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alarm rows: %w", err)
	}
	return alarms, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlarm(row rowScanner) (*models.Alarm, error) {
	var (
		a        models.Alarm
		kind     string
		weekdays string
		enabled  int
	)
	if err := row.Scan(&a.ID, &a.Hour, &a.Minute, &kind, &weekdays, &a.AudioPath, &a.Remark, &enabled); err != nil {
		return nil, err
	}
	a.Repeat = models.Repeat{Kind: models.RepeatKind(kind), Weekdays: decodeWeekdays(weekdays)}
	a.Enabled = enabled != 0
	return &a, nil
}

// Weekday sets are stored as a comma-joined code list, e.g. "2,4,6".
func encodeWeekdays(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(s string) []int {
	if s == "" {
		return nil
	}
	var days []int
	for _, part := range strings.Split(s, ",") {
		if d, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			days = append(days, d)
		}
	}
	return days
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickerWakeSource delivers wakes by scanning its armed requests against the
// wall clock on a coarse ticker. Comparing against time.Now rather than
// waiting on a monotonic timer means a request armed before the machine
// slept is still delivered (late) on the first scan after it resumes.
type TickerWakeSource struct {
	mu      sync.Mutex
	armed   map[int]armedRequest
	handler func(requestCode int, token string)

	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	log      *zap.Logger
}

type armedRequest struct {
	at    time.Time
	token string
}

// NewTickerWakeSource creates a wake source scanning at the given interval.
// Alarms are minute precision, so anything up to a few seconds is fine.
func NewTickerWakeSource(interval time.Duration, log *zap.Logger) *TickerWakeSource {
	if interval <= 0 {
		interval = time.Second
	}
	return &TickerWakeSource{
		armed:    make(map[int]armedRequest),
		interval: interval,
		done:     make(chan struct{}),
		log:      log,
	}
}

// SetHandler installs the delivery callback.
func (s *TickerWakeSource) SetHandler(handler func(requestCode int, token string)) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

// Start launches the scan loop. An immediate scan runs first so requests
// already due (for example after resuming from sleep) are not delayed by a
// full tick.
func (s *TickerWakeSource) Start() {
	s.ticker = time.NewTicker(s.interval)
	go func() {
		s.scan()
		for {
			select {
			case <-s.done:
				return
			case <-s.ticker.C:
				s.scan()
			}
		}
	}()
}

// Stop terminates the scan loop. Armed requests are dropped.
func (s *TickerWakeSource) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.done)
	})
}

// ArmWake registers a delivery at or after the given time.
func (s *TickerWakeSource) ArmWake(requestCode int, at time.Time, token string) error {
	s.mu.Lock()
	s.armed[requestCode] = armedRequest{at: at, token: token}
	s.mu.Unlock()
	return nil
}

// CancelWake removes a pending request. No-op when none exists.
func (s *TickerWakeSource) CancelWake(requestCode int) {
	s.mu.Lock()
	delete(s.armed, requestCode)
	s.mu.Unlock()
}

func (s *TickerWakeSource) scan() {
	now := time.Now()

	s.mu.Lock()
	handler := s.handler
	var due []struct {
		code  int
		token string
	}
	for code, req := range s.armed {
		if !req.at.After(now) {
			due = append(due, struct {
				code  int
				token string
			}{code, req.token})
			delete(s.armed, code)
		}
	}
	s.mu.Unlock()

	if handler == nil {
		return
	}
	for _, d := range due {
		s.log.Debug("wake due", zap.Int("request_code", d.code), zap.Time("now", now))
		go handler(d.code, d.token)
	}
}

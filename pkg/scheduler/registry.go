package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WakeSource is the OS-level wake primitive. Delivery is "at or after" the
// requested time, never exact, and an armed request must survive the process
// idling. Arming a code that is already armed replaces the old request. The
// opaque token passed to ArmWake is echoed back on delivery.
type WakeSource interface {
	ArmWake(requestCode int, at time.Time, token string) error
	CancelWake(requestCode int)
	// SetHandler installs the callback invoked when a wake fires. It must be
	// called before the first ArmWake.
	SetHandler(func(requestCode int, token string))
}

type pendingWake struct {
	at    time.Time
	token string
}

// Registry owns the one-pending-wake-per-request-code invariant. Arm is
// always cancel-then-set, and every armed wake carries a generation token so
// a delivery from a request that has since been replaced or cancelled is
// recognized as stale and dropped.
type Registry struct {
	mu      sync.Mutex
	pending map[int]pendingWake
	source  WakeSource
	handler func(requestCode int)
	log     *zap.Logger
}

// NewRegistry wires a Registry over the given wake source. onWake is invoked
// for every non-stale delivery; it runs on the wake source's goroutine.
func NewRegistry(source WakeSource, onWake func(requestCode int), log *zap.Logger) *Registry {
	r := &Registry{
		pending: make(map[int]pendingWake),
		source:  source,
		handler: onWake,
		log:     log,
	}
	source.SetHandler(r.deliver)
	return r
}

// Arm registers a wake for requestCode at the given time, replacing any
// pending wake for the same code.
func (r *Registry) Arm(requestCode int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[requestCode]; ok {
		r.source.CancelWake(requestCode)
		delete(r.pending, requestCode)
	}
	token := uuid.New().String()
	if err := r.source.ArmWake(requestCode, at, token); err != nil {
		return err
	}
	r.pending[requestCode] = pendingWake{at: at, token: token}
	r.log.Debug("wake armed",
		zap.Int("request_code", requestCode),
		zap.Time("at", at))
	return nil
}

// Cancel removes any pending wake for requestCode. No-op when none exists.
func (r *Registry) Cancel(requestCode int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[requestCode]; !ok {
		return
	}
	r.source.CancelWake(requestCode)
	delete(r.pending, requestCode)
	r.log.Debug("wake cancelled", zap.Int("request_code", requestCode))
}

// ArmedAt reports the pending wake time for requestCode, if any.
func (r *Registry) ArmedAt(requestCode int) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[requestCode]
	return p.at, ok
}

// deliver consumes a wake from the source. The pending entry is removed
// before the handler runs so that a handler re-arming the same code starts
// from a clean slate.
func (r *Registry) deliver(requestCode int, token string) {
	r.mu.Lock()
	p, ok := r.pending[requestCode]
	if ok && p.token == token {
		delete(r.pending, requestCode)
	}
	r.mu.Unlock()

	if !ok || p.token != token {
		// Cancelled or replaced after the source committed to firing.
		r.log.Debug("stale wake dropped", zap.Int("request_code", requestCode))
		return
	}
	r.handler(requestCode)
}

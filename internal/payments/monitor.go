package payments

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ReturnSignal is a hint that the customer came back from the UPI app.
// Several signals usually fire in a burst when the app switches, so the
// monitor debounces them before declaring a return.
type ReturnSignal string

const (
	SignalVisibility ReturnSignal = "visibility"
	SignalFocus      ReturnSignal = "focus"
	SignalPageshow   ReturnSignal = "pageshow"
)

// DefaultSettleDelay is the debounce applied after the first return signal
// before the return callback fires.
const DefaultSettleDelay = time.Second

// Monitor tracks one pending payment: it debounces return signals, enforces
// the failure deadline, and guarantees the resolution fires at most once.
type Monitor struct {
	mu        sync.Mutex
	resolved   bool
	returned   bool
	lastSignal ReturnSignal
	settle     *time.Timer
	deadline   *time.Timer
	onReturn   func()
	onTimeout  func()
}

// MonitorConfig controls monitor timing.
type MonitorConfig struct {
	SettleDelay    time.Duration
	FailureTimeout time.Duration
}

func newMonitor(cfg MonitorConfig, onReturn, onTimeout func()) *Monitor {
	m := &Monitor{onReturn: onReturn, onTimeout: onTimeout}
	timeout := cfg.FailureTimeout
	if timeout <= 0 {
		timeout = DefaultFailureTimeout
	}
	m.deadline = time.AfterFunc(timeout, m.fireTimeout)
	return m
}

// Signal reports a possible return from the UPI app. Signals after the
// debounce has fired, or after resolution, are ignored.
func (m *Monitor) Signal(sig ReturnSignal, settleDelay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolved || m.returned {
		return
	}
	if settleDelay <= 0 {
		settleDelay = DefaultSettleDelay
	}
	m.lastSignal = sig
	if m.settle != nil {
		m.settle.Stop()
	}
	m.settle = time.AfterFunc(settleDelay, m.fireReturn)
}

func (m *Monitor) fireReturn() {
	m.mu.Lock()
	if m.resolved || m.returned {
		m.mu.Unlock()
		return
	}
	m.returned = true
	cb := m.onReturn
	m.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (m *Monitor) fireTimeout() {
	m.mu.Lock()
	if m.resolved {
		m.mu.Unlock()
		return
	}
	m.resolved = true
	m.stopTimersLocked()
	cb := m.onTimeout
	m.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// resolve marks the monitor settled and tears down its timers. It reports
// whether this call was the first resolution.
func (m *Monitor) resolve() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolved {
		return false
	}
	m.resolved = true
	m.stopTimersLocked()
	return true
}

func (m *Monitor) stopTimersLocked() {
	if m.settle != nil {
		m.settle.Stop()
		m.settle = nil
	}
	if m.deadline != nil {
		m.deadline.Stop()
		m.deadline = nil
	}
}

// MonitorRegistry tracks the monitor for each pending order.
type MonitorRegistry struct {
	mu       sync.Mutex
	monitors map[string]*Monitor
	cfg      MonitorConfig
}

// NewMonitorRegistry constructs a registry with the supplied timing defaults.
func NewMonitorRegistry(cfg MonitorConfig) *MonitorRegistry {
	return &MonitorRegistry{
		monitors: make(map[string]*Monitor),
		cfg:      cfg,
	}
}

// Track starts monitoring a pending order. onTimeout fires when the failure
// deadline passes unresolved; onReturn fires once when a return from the UPI
// app is detected.
func (r *MonitorRegistry) Track(orderID string, onReturn, onTimeout func()) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return errors.New("payments: order id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.monitors[orderID]; exists {
		return errors.New("payments: order already tracked")
	}
	r.monitors[orderID] = newMonitor(r.cfg, onReturn, func() {
		r.remove(orderID)
		if onTimeout != nil {
			onTimeout()
		}
	})
	return nil
}

// Signal forwards a return signal to the order's monitor. Unknown orders are
// ignored; the order may already be resolved.
func (r *MonitorRegistry) Signal(orderID string, sig ReturnSignal) bool {
	r.mu.Lock()
	monitor := r.monitors[orderID]
	r.mu.Unlock()
	if monitor == nil {
		return false
	}
	monitor.Signal(sig, r.cfg.SettleDelay)
	return true
}

// Resolve settles the order's monitor and removes it. It reports whether the
// monitor was still pending.
func (r *MonitorRegistry) Resolve(orderID string) bool {
	r.mu.Lock()
	monitor := r.monitors[orderID]
	delete(r.monitors, orderID)
	r.mu.Unlock()
	if monitor == nil {
		return false
	}
	return monitor.resolve()
}

func (r *MonitorRegistry) remove(orderID string) {
	r.mu.Lock()
	delete(r.monitors, orderID)
	r.mu.Unlock()
}

// Pending reports how many orders are currently tracked.
func (r *MonitorRegistry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.monitors)
}

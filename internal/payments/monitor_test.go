package payments

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestMonitorRegistrySignalDebounce(t *testing.T) {
	reg := NewMonitorRegistry(MonitorConfig{
		SettleDelay:    20 * time.Millisecond,
		FailureTimeout: time.Minute,
	})

	var returns atomic.Int32
	if err := reg.Track("ord-1", func() { returns.Add(1) }, nil); err != nil {
		t.Fatalf("track: %v", err)
	}

	// A burst of signals must collapse into a single return.
	reg.Signal("ord-1", SignalVisibility)
	reg.Signal("ord-1", SignalFocus)
	reg.Signal("ord-1", SignalPageshow)

	time.Sleep(100 * time.Millisecond)
	if got := returns.Load(); got != 1 {
		t.Fatalf("return fired %d times, want 1", got)
	}

	// Signals after the return settled are ignored.
	reg.Signal("ord-1", SignalFocus)
	time.Sleep(50 * time.Millisecond)
	if got := returns.Load(); got != 1 {
		t.Fatalf("late signal re-fired return, count %d", got)
	}
}

func TestMonitorRegistryTimeout(t *testing.T) {
	reg := NewMonitorRegistry(MonitorConfig{
		SettleDelay:    10 * time.Millisecond,
		FailureTimeout: 30 * time.Millisecond,
	})

	var timeouts atomic.Int32
	if err := reg.Track("ord-2", nil, func() { timeouts.Add(1) }); err != nil {
		t.Fatalf("track: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if got := timeouts.Load(); got != 1 {
		t.Fatalf("timeout fired %d times, want 1", got)
	}
	if reg.Pending() != 0 {
		t.Fatalf("timed out monitor still tracked")
	}
	// Resolution after the timeout must report not-pending.
	if reg.Resolve("ord-2") {
		t.Fatal("resolve after timeout should be false")
	}
}

func TestMonitorRegistryResolveStopsTimers(t *testing.T) {
	reg := NewMonitorRegistry(MonitorConfig{
		SettleDelay:    10 * time.Millisecond,
		FailureTimeout: 40 * time.Millisecond,
	})

	var timeouts, returns atomic.Int32
	if err := reg.Track("ord-3", func() { returns.Add(1) }, func() { timeouts.Add(1) }); err != nil {
		t.Fatalf("track: %v", err)
	}
	reg.Signal("ord-3", SignalVisibility)

	if !reg.Resolve("ord-3") {
		t.Fatal("first resolve should report pending")
	}
	if reg.Resolve("ord-3") {
		t.Fatal("second resolve should report not pending")
	}

	time.Sleep(100 * time.Millisecond)
	if timeouts.Load() != 0 {
		t.Fatal("timeout fired after resolution")
	}
	if returns.Load() != 0 {
		t.Fatal("return fired after resolution")
	}
}

func TestMonitorRegistryTrackValidation(t *testing.T) {
	reg := NewMonitorRegistry(MonitorConfig{})
	if err := reg.Track("  ", nil, nil); err == nil {
		t.Fatal("expected error for blank order id")
	}
	if err := reg.Track("ord-4", nil, nil); err != nil {
		t.Fatalf("track: %v", err)
	}
	if err := reg.Track("ord-4", nil, nil); err == nil {
		t.Fatal("expected error for duplicate tracking")
	}
	reg.Resolve("ord-4")
}

func TestMonitorRegistrySignalUnknownOrder(t *testing.T) {
	reg := NewMonitorRegistry(MonitorConfig{})
	if reg.Signal("missing", SignalFocus) {
		t.Fatal("signal for unknown order should report false")
	}
}

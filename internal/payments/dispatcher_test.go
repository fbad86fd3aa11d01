package payments

import (
	"strings"
	"testing"
	"time"
)

func newTestDispatcher(t *testing.T, opts ...DispatcherOption) *Dispatcher {
	t.Helper()
	links, err := NewLinkBuilder("shop@upi", "Toddy Shop")
	if err != nil {
		t.Fatalf("new link builder: %v", err)
	}
	d, err := NewDispatcher(links, opts...)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d
}

func TestDispatcherPlanIOS(t *testing.T) {
	d := newTestDispatcher(t)

	plan := d.Plan(PlatformIOS, 150, "note")
	if len(plan.URLs) != len(DefaultIOSSchemes) {
		t.Fatalf("got %d urls, want %d", len(plan.URLs), len(DefaultIOSSchemes))
	}
	for i, scheme := range DefaultIOSSchemes {
		if !strings.HasPrefix(plan.URLs[i], scheme+"?") {
			t.Fatalf("url %d = %q, want prefix %q", i, plan.URLs[i], scheme)
		}
	}
	if plan.URLs[len(plan.URLs)-1][:10] != "upi://pay?" {
		t.Fatalf("last url should be the generic link, got %q", plan.URLs[len(plan.URLs)-1])
	}
	if plan.ProbeWindow != DefaultProbeWindow {
		t.Fatalf("probe window = %v, want %v", plan.ProbeWindow, DefaultProbeWindow)
	}
}

func TestDispatcherPlanAndroid(t *testing.T) {
	d := newTestDispatcher(t)

	plan := d.Plan(PlatformAndroid, 150, "note")
	if len(plan.URLs) != 1 {
		t.Fatalf("got %d urls, want 1", len(plan.URLs))
	}
	if !strings.HasPrefix(plan.URLs[0], "upi://pay?") {
		t.Fatalf("url = %q", plan.URLs[0])
	}
	if plan.ProbeWindow != 0 {
		t.Fatalf("android plan should not set a probe window, got %v", plan.ProbeWindow)
	}
}

func TestDispatcherUnknownPlatformFallsBackToGenericLink(t *testing.T) {
	d := newTestDispatcher(t)
	plan := d.Plan("desktop", 150, "note")
	if len(plan.URLs) != 1 {
		t.Fatalf("got %d urls, want 1", len(plan.URLs))
	}
}

func TestDispatcherOptions(t *testing.T) {
	d := newTestDispatcher(t,
		WithIOSSchemes([]string{"upi://pay"}),
		WithProbeWindow(500*time.Millisecond),
	)
	plan := d.Plan(PlatformIOS, 60, "note")
	if len(plan.URLs) != 1 {
		t.Fatalf("got %d urls, want 1", len(plan.URLs))
	}
	if plan.ProbeWindow != 500*time.Millisecond {
		t.Fatalf("probe window = %v", plan.ProbeWindow)
	}
}

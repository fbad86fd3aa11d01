package payments

import (
	"errors"
	"strings"
	"time"
)

// Platform identifies the customer's device family, which decides the app
// launch strategy.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// DefaultIOSSchemes is the ordered probe list for iOS, most popular app
// first, ending with the generic UPI link. iOS offers no intent chooser, so
// the client tries each scheme and falls through after the probe window.
var DefaultIOSSchemes = []string{
	"gpay://upi/pay",
	"phonepe://pay",
	"paytmmp://pay",
	"upi://pay",
}

const (
	// DefaultProbeWindow is how long the client waits for an app to claim a
	// scheme before falling through to the next one.
	DefaultProbeWindow = 1200 * time.Millisecond
	// DefaultFailureTimeout is how long a pending payment may stay
	// unresolved before it is auto-failed.
	DefaultFailureTimeout = 5 * time.Minute
)

// LaunchPlan tells the client how to hand off to a UPI app.
type LaunchPlan struct {
	// URLs carries deep links to try in order.
	URLs []string
	// ProbeWindow only applies when len(URLs) > 1.
	ProbeWindow time.Duration
}

// Dispatcher plans UPI app launches per platform.
type Dispatcher struct {
	links       *LinkBuilder
	iosSchemes  []string
	probeWindow time.Duration
}

// DispatcherOption customises launch planning.
type DispatcherOption func(*Dispatcher)

// WithIOSSchemes overrides the ordered iOS scheme probe list.
func WithIOSSchemes(schemes []string) DispatcherOption {
	return func(d *Dispatcher) {
		if len(schemes) > 0 {
			d.iosSchemes = append([]string(nil), schemes...)
		}
	}
}

// WithProbeWindow overrides the per-scheme probe window.
func WithProbeWindow(window time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if window > 0 {
			d.probeWindow = window
		}
	}
}

// NewDispatcher constructs a Dispatcher over the link builder.
func NewDispatcher(links *LinkBuilder, opts ...DispatcherOption) (*Dispatcher, error) {
	if links == nil {
		return nil, errors.New("payments: link builder is required")
	}
	d := &Dispatcher{
		links:       links,
		iosSchemes:  DefaultIOSSchemes,
		probeWindow: DefaultProbeWindow,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// PaymentURL exposes the generic UPI link for the dispatcher's payee.
func (d *Dispatcher) PaymentURL(amount int, note string) string {
	return d.links.PaymentURL(amount, note)
}

// Plan returns the launch plan for the platform. Android and desktop get the
// single generic link; the OS intent chooser handles app selection there.
func (d *Dispatcher) Plan(platform Platform, amount int, note string) LaunchPlan {
	if normalisePlatform(platform) == PlatformIOS {
		urls := make([]string, 0, len(d.iosSchemes))
		for _, scheme := range d.iosSchemes {
			urls = append(urls, d.links.SchemeURL(scheme, amount, note))
		}
		return LaunchPlan{URLs: urls, ProbeWindow: d.probeWindow}
	}
	return LaunchPlan{URLs: []string{d.links.PaymentURL(amount, note)}}
}

func normalisePlatform(p Platform) Platform {
	switch Platform(strings.ToLower(strings.TrimSpace(string(p)))) {
	case PlatformIOS:
		return PlatformIOS
	default:
		return PlatformAndroid
	}
}

package encouragement

import (
	"time"
)

const (
	DefaultThrottleWindow = 7 * 24 * time.Hour
	DefaultThrottleLimit  = 4
)

// Throttle caps the encouragement emails sent to a student per rolling window.
// One budget is shared by every kind of email.
type Throttle struct {
	Window time.Duration
	Limit  int
}

func DefaultThrottle() Throttle {
	return Throttle{Window: DefaultThrottleWindow, Limit: DefaultThrottleLimit}
}

func (t Throttle) windowOpen(r *Record, now time.Time) bool {
	return !r.WindowStart.IsZero() && now.Sub(r.WindowStart) < t.Window
}

// MaySend reports whether one more email may be sent to the owner of r at now.
func (t Throttle) MaySend(r *Record, now time.Time) bool {
	if !t.windowOpen(r, now) {
		return true
	}
	return r.EmailsSentThisWindow < t.Limit
}

// RecordSend accounts for an email successfully sent at now, starting a fresh window if needed.
func (t Throttle) RecordSend(r *Record, now time.Time) {
	if !t.windowOpen(r, now) {
		r.WindowStart = now.UTC()
		r.EmailsSentThisWindow = 1
		return
	}
	r.EmailsSentThisWindow++
}

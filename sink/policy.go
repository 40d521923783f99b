package sink

import (
	"github.com/wippyai/ledhost/errors"
)

// Policy decides what a sink failure does to the current run.
type Policy string

const (
	// PolicyAbort ends the run on any bus or hardware failure.
	PolicyAbort Policy = "abort"
	// PolicySkip logs the failed update and keeps the run.
	PolicySkip Policy = "skip"
)

// ParsePolicy parses a configured policy name. "" means PolicyAbort.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	default:
		return "", errors.InvalidConfig("sink.on_error", "must be abort or skip, got "+s)
	}
}

// Tolerates reports whether err may be skipped under p. Only bus and
// hardware failures are ever skipped; decode and guest failures always end
// the run.
func (p Policy) Tolerates(err error) bool {
	if p != PolicySkip || err == nil {
		return false
	}
	switch errors.KindOf(err) {
	case errors.KindBus, errors.KindHardware:
		return true
	default:
		return false
	}
}

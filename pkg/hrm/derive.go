package hrm

import (
	"strconv"
	"strings"
)

// clockMinutes parses "HH:MM" or "HH:MM:SS" into minutes since
// midnight. Inputs here are frequently absent by design (an employee
// who has not checked in yet), so failures report ok=false instead of
// an error.
func clockMinutes(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// DeriveHours computes worked hours for an attendance entry. A positive
// backend-reported value always wins; a negative one is treated as
// absent. Otherwise the span between check-in and check-out is used.
// Missing or unparsable endpoints and negative spans clamp to 0.
func DeriveHours(checkIn, checkOut string, reported float64) float64 {
	if reported > 0 {
		return reported
	}
	in, ok := clockMinutes(checkIn)
	if !ok {
		return 0
	}
	out, ok := clockMinutes(checkOut)
	if !ok || out < in {
		return 0
	}
	return float64(out-in) / 60
}

// IsLate reports whether checkIn falls strictly after the company's
// last allowed check-in time. Unparsable input is never late.
func IsLate(checkIn, lastAllowed string) bool {
	in, ok := clockMinutes(checkIn)
	if !ok {
		return false
	}
	limit, ok := clockMinutes(lastAllowed)
	if !ok {
		return false
	}
	return in > limit
}

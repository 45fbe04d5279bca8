package hrm

import (
	"fmt"
	"time"
)

// Meridiem is the AM/PM half of a 12-hour clock reading.
type Meridiem string

const (
	AM Meridiem = "AM"
	PM Meridiem = "PM"
)

// Clock12 is a local 12-hour wall-clock reading as shown in the UI.
type Clock12 struct {
	Hour   int
	Minute int
	Period Meridiem
}

// LocalToUTC converts a local 12-hour reading into the wire format, UTC
// "HH:MM:SS". The conversion goes through a concrete local date
// ("today") so that zone offsets, including fractional-hour zones and
// DST, come from the platform rather than fixed-offset arithmetic. The
// calendar date component is discarded by design; only the wall-clock
// time survives, even when the conversion crosses midnight.
func LocalToUTC(hour12, minute int, period Meridiem) (string, error) {
	if hour12 < 1 || hour12 > 12 {
		return "", fmt.Errorf("hour %d out of 12-hour range", hour12)
	}
	if minute < 0 || minute > 59 {
		return "", fmt.Errorf("minute %d out of range", minute)
	}
	if period != AM && period != PM {
		return "", fmt.Errorf("period %q is not AM or PM", period)
	}

	h := hour12 % 12
	if period == PM {
		h += 12
	}

	now := time.Now()
	local := time.Date(now.Year(), now.Month(), now.Day(), h, minute, 0, 0, time.Local)
	u := local.UTC()
	return fmt.Sprintf("%02d:%02d:00", u.Hour(), u.Minute()), nil
}

// UTCToLocal converts a wire-format UTC "HH:MM:SS" time-of-day into the
// local 12-hour reading. Hour 0 displays as 12 AM and hour 12 as 12 PM.
func UTCToLocal(s string) (Clock12, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return Clock12{}, fmt.Errorf("parse %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock12{}, fmt.Errorf("time %q out of range", s)
	}

	now := time.Now()
	local := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, time.UTC).Local()

	hour := local.Hour()
	c := Clock12{Minute: local.Minute(), Period: AM}
	switch {
	case hour == 0:
		c.Hour = 12
	case hour == 12:
		c.Hour = 12
		c.Period = PM
	case hour > 12:
		c.Hour = hour - 12
		c.Period = PM
	default:
		c.Hour = hour
	}
	return c, nil
}

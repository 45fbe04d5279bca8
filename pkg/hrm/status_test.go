package hrm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapStatus_KnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		backend string
		want    Status
	}{
		{"NOT_MARKED", StatusNotMarked},
		{"CHECK_IN_REQUESTED", StatusCheckInRequested},
		{"CHECK_IN_REJECTED", StatusCheckInRejected},
		{"CHECKED_IN", StatusCheckedIn},
		{"CHECK_OUT_REQUESTED", StatusCheckOutRequest},
		{"CHECKED_OUT", StatusCheckedOut},
		{"CHECK_OUT_REJECTED", StatusCheckOutRejected},
		{"PRESENT", StatusPresent},
		{"ABSENT", StatusAbsent},
		{"LATE", StatusLate},
		{"HALF_DAY", StatusHalfDay},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.backend, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapStatus(tt.backend))
		})
	}
}

func TestMapStatus_UnknownDefaultsToNotMarked(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "BANANA", "checked_in", "CHECKED-IN", "  CHECKED_IN"} {
		assert.Equal(t, StatusNotMarked, MapStatus(raw), "input %q", raw)
	}
}

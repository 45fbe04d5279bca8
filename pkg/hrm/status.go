package hrm

// Status is the UI-facing attendance lifecycle value.
type Status string

const (
	StatusNotMarked        Status = "not-marked"
	StatusCheckInRequested Status = "check-in-requested"
	StatusCheckInRejected  Status = "check-in-rejected"
	StatusCheckedIn        Status = "checked-in"
	StatusCheckOutRequest  Status = "check-out-requested"
	StatusCheckedOut       Status = "checked-out"
	StatusCheckOutRejected Status = "check-out-rejected"

	// Legacy values returned by older backend revisions; tolerated, not
	// re-litigated.
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half-day"
)

var statusByBackend = map[string]Status{
	"NOT_MARKED":          StatusNotMarked,
	"CHECK_IN_REQUESTED":  StatusCheckInRequested,
	"CHECK_IN_REJECTED":   StatusCheckInRejected,
	"CHECKED_IN":          StatusCheckedIn,
	"CHECK_OUT_REQUESTED": StatusCheckOutRequest,
	"CHECKED_OUT":         StatusCheckedOut,
	"CHECK_OUT_REJECTED":  StatusCheckOutRejected,
	"PRESENT":             StatusPresent,
	"ABSENT":              StatusAbsent,
	"LATE":                StatusLate,
	"HALF_DAY":            StatusHalfDay,
}

// MapStatus maps a backend status onto the UI enum. Unknown values map
// to StatusNotMarked; this never fails.
func MapStatus(backend string) Status {
	if s, ok := statusByBackend[backend]; ok {
		return s
	}
	return StatusNotMarked
}

package enums

// PunchType is the derived polarity of a timeclock event.
type PunchType string

const (
	PunchClockIn  PunchType = "clock_in"
	PunchClockOut PunchType = "clock_out"
)

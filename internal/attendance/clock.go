package attendance

import (
	"fmt"
	"time"
)

// Clock supplies the current time. Attendance dates are taken from it.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock returns a clock for the IANA zone name; "" and "Local" use the host zone.
func NewSystemClock(zone string) (SystemClock, error) {
	if zone == "" || zone == "Local" {
		return SystemClock{Location: time.Local}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return SystemClock{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, zone)
	}
	return SystemClock{Location: loc}, nil
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

package allocator

import "fmt"

// Status is the lifecycle state of a booking.
type Status string

const (
	// StatusConfirmed holds an exclusive claim on the assigned table.
	StatusConfirmed Status = "confirmed"
	// StatusWaitlist has no table and no claim.
	StatusWaitlist Status = "waitlist"
	// StatusRejected is set by operators outside the allocator.
	StatusRejected Status = "rejected"
)

// ParseStatus converts a stored or user supplied value into a Status.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusConfirmed, StatusWaitlist, StatusRejected:
		return Status(value), nil
	default:
		return "", fmt.Errorf("allocator: unknown booking status %q", value)
	}
}

// HoldsTable reports whether bookings in this state count toward overlap checks.
func (s Status) HoldsTable() bool {
	switch s {
	case StatusConfirmed:
		return true
	case StatusWaitlist, StatusRejected:
		return false
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

package schedule

import "fmt"

const (
	slotStartHour   = 11
	slotCeilingHour = 17
	patientsPerSlot = 30
)

// ArrivalSlot maps a serial number to its half-hour arrival bucket.
// Thirty patients share a bucket, starting at 11:00; anything past the end
// of the day collapses to 17:00.
func ArrivalSlot(serial int) string {
	if serial < 1 {
		serial = 1
	}
	bucket := (serial - 1) / patientsPerSlot
	hour := slotStartHour + bucket/2
	minute := (bucket % 2) * 30
	if hour >= slotCeilingHour {
		hour, minute = slotCeilingHour, 0
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

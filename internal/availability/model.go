package availability

import (
	"time"

	"github.com/google/uuid"
)

// Record is a stored deviation from the default-open policy for one day.
type Record struct {
	Date      time.Time
	Available bool
	UpdatedBy *uuid.UUID
	UpdatedAt time.Time
}

type Source string

const (
	SourceExplicit Source = "explicit"
	SourceDefault  Source = "default"
)

// Lookup is the result of asking whether a day accepts appointments.
// Default means no record exists and the day is open.
type Lookup struct {
	Source    Source
	Available bool
}

var defaultLookup = Lookup{Source: SourceDefault, Available: true}

// Resolve applies the default-open policy to an optional stored record.
func Resolve(rec *Record) Lookup {
	if rec == nil {
		return defaultLookup
	}
	return Lookup{Source: SourceExplicit, Available: rec.Available}
}

// Record flattens the lookup into the boundary shape for day.
func (l Lookup) Record(day time.Time) Record {
	return Record{Date: day, Available: l.Available}
}

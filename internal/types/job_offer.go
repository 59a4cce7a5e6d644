package types

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire format for job boundary dates.
const DateLayout = "2006-01-02"

// JobOffer is one flattened, publishable job mention: a single index of an
// ExtractionResponse joined with provenance from the originating email. It
// is the unit of deduplication and publication, never mutated after
// creation.
type JobOffer struct {
	Workplace      string
	StartDate      string // YYYY-MM-DD, last working day is EndDate
	EndDate        string
	DayShiftRate   float64
	NightShiftRate float64
	Position       string
	CleanShaven    bool
	ClientName     string
	ContactNumber  string
	EmailAddress   string

	// Provenance.
	ThreadID        string
	EmailThreadLink string
	EmailSubject    string
	Sender          string
	Received        ReceivedTime
}

// Summary derives the human-readable event title. It doubles as the
// deduplication key, so it must be deterministic for a given offer.
func (o JobOffer) Summary() string {
	return fmt.Sprintf("%s | $%s/day & $%s/night | %s",
		o.Workplace, formatRate(o.DayShiftRate), formatRate(o.NightShiftRate), o.ClientName)
}

// Span parses the inclusive working window in the given zone. Both
// boundaries are required; a missing or malformed date is an error.
func (o JobOffer) Span(zone string) (start, end time.Time, err error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time zone %q: %w", zone, err)
	}
	start, err = time.ParseInLocation(DateLayout, o.StartDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", o.StartDate, err)
	}
	end, err = time.ParseInLocation(DateLayout, o.EndDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", o.EndDate, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s precedes start date %s", o.EndDate, o.StartDate)
	}
	return start, end, nil
}

// HasDates reports whether both boundary dates parse as YYYY-MM-DD. This is
// the deterministic cross-check of the model's "ignore jobs without both
// dates" rule.
func (o JobOffer) HasDates() bool {
	if _, err := time.Parse(DateLayout, o.StartDate); err != nil {
		return false
	}
	_, err := time.Parse(DateLayout, o.EndDate)
	return err == nil
}

func formatRate(r float64) string {
	return strconv.FormatFloat(r, 'f', 2, 64)
}

// Package types defines the data model shared across the scan pipeline:
// flattened email records, parsed model responses, publishable job offers
// and the per-email outcome taxonomy.
package types

import (
	"fmt"
	"strings"
	"time"
)

// displayLayout is the legacy human-readable timestamp format used in
// calendar descriptions and sheet rows, e.g. "2025-07-27 09:30:00 AWST".
const displayLayout = "2006-01-02 15:04:05 MST"

// threadLinkBase is the Gmail deep-link prefix for a thread.
const threadLinkBase = "https://mail.google.com/mail/u/0/#inbox/"

// previewLen bounds the identifying preview used in log lines.
const previewLen = 50

// ReceivedTime is a structured receipt timestamp. The instant is stored
// zone-qualified and only formatted to the legacy display string at the
// external-interface boundary.
type ReceivedTime struct {
	Time time.Time
	Zone string // IANA zone name, e.g. "Australia/Perth"
}

// NewReceivedTime localizes a UTC instant into the named zone.
func NewReceivedTime(t time.Time, zone string) (ReceivedTime, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return ReceivedTime{}, fmt.Errorf("invalid time zone %q: %w", zone, err)
	}
	return ReceivedTime{Time: t.In(loc), Zone: zone}, nil
}

// Display renders the zone-localized presentation string. It is not a
// sortable key; use Time for comparisons.
func (rt ReceivedTime) Display() string {
	return rt.Time.Format(displayLayout)
}

// IsZero reports whether the timestamp was never set.
func (rt ReceivedTime) IsZero() bool {
	return rt.Time.IsZero()
}

// EmailRecord is one flattened email: header fields plus the best plain-text
// rendition of the body. Immutable after creation.
type EmailRecord struct {
	Subject  string
	Sender   string
	Body     string
	ThreadID string
	Received ReceivedTime
}

// ThreadLink returns the deep link to the originating Gmail thread.
func (r EmailRecord) ThreadLink() string {
	return threadLinkBase + r.ThreadID
}

// Preview returns a short identifying string for log lines: the subject if
// present, otherwise the start of the body.
func (r EmailRecord) Preview() string {
	s := strings.TrimSpace(r.Subject)
	if s == "" {
		s = strings.TrimSpace(r.Body)
	}
	if len(s) > previewLen {
		s = s[:previewLen]
	}
	return s
}

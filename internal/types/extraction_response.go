package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexString is a string that also accepts a bare JSON number. The model is
// asked for digits-only contact numbers and will sometimes emit them
// unquoted.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// ExtractionResponse is the model's parsed output for one email: a relevance
// flag plus ten parallel arrays, one entry per job mentioned. The arrays
// should be equal length but often are not; the normalize package repairs
// ragged responses rather than trusting the model.
type ExtractionResponse struct {
	IsWorkOpportunity bool         `json:"is_work_opportunity"`
	Workplace         []string     `json:"workplace"`
	StartDate         []string     `json:"start_date"`
	EndDate           []string     `json:"end_date"`
	DayShiftRate      []float64    `json:"day_shift_rate"`
	NightShiftRate    []float64    `json:"night_shift_rate"`
	Position          []string     `json:"position"`
	CleanShaven       []bool       `json:"clean_shaven"`
	ClientName        []string     `json:"client_name"`
	ContactNumber     []FlexString `json:"contact_number"`
	EmailAddress      []string     `json:"email_address"`
}

// FieldLengths returns the length of every list-valued field, keyed by its
// wire name.
func (r *ExtractionResponse) FieldLengths() map[string]int {
	return map[string]int{
		"workplace":        len(r.Workplace),
		"start_date":       len(r.StartDate),
		"end_date":         len(r.EndDate),
		"day_shift_rate":   len(r.DayShiftRate),
		"night_shift_rate": len(r.NightShiftRate),
		"position":         len(r.Position),
		"clean_shaven":     len(r.CleanShaven),
		"client_name":      len(r.ClientName),
		"contact_number":   len(r.ContactNumber),
		"email_address":    len(r.EmailAddress),
	}
}

// MaxFieldLength returns the maximum observed list length, which the
// normalizer treats as authoritative when lengths disagree.
func (r *ExtractionResponse) MaxFieldLength() int {
	max := 0
	for _, n := range r.FieldLengths() {
		if n > max {
			max = n
		}
	}
	return max
}

// Ragged reports whether the list-valued fields disagree in length.
func (r *ExtractionResponse) Ragged() bool {
	lengths := r.FieldLengths()
	first := -1
	for _, n := range lengths {
		if first == -1 {
			first = n
			continue
		}
		if n != first {
			return true
		}
	}
	return false
}

// DescribeLengths renders the field lengths for diagnostics, in a stable
// order.
func (r *ExtractionResponse) DescribeLengths() string {
	lengths := r.FieldLengths()
	parts := make([]string, 0, len(lengths))
	for _, key := range []string{
		"workplace", "start_date", "end_date", "day_shift_rate",
		"night_shift_rate", "position", "clean_shaven", "client_name",
		"contact_number", "email_address",
	} {
		parts = append(parts, fmt.Sprintf("%s=%d", key, lengths[key]))
	}
	return strings.Join(parts, " ")
}

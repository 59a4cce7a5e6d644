package types

import "fmt"

// Status classifies what happened to one unit of work (an email, or one of
// its offers).
type Status string

// Status values.
const (
	StatusPublished Status = "published"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// SkipReason names why a unit was skipped. Unparseable model output is the
// expected common case for non-opportunity emails and is reported only in
// the aggregate.
type SkipReason string

// Skip reasons.
const (
	SkipNone           SkipReason = ""
	SkipUnparseable    SkipReason = "unparseable_model_output"
	SkipSchema         SkipReason = "schema_violation"
	SkipNotOpportunity SkipReason = "not_work_opportunity"
	SkipEmptyBody      SkipReason = "empty_body"
	SkipEmptyResponse  SkipReason = "empty_response"
	SkipInvalidDates   SkipReason = "invalid_dates"
	SkipTooLong        SkipReason = "span_too_long"
	SkipDuplicate      SkipReason = "duplicate_event"
	SkipDryRun         SkipReason = "dry_run"
)

// Outcome is the typed result of processing one unit, replacing the
// original's best-effort silent skips so callers and tests can assert on
// skip reasons instead of absence of output.
type Outcome struct {
	Status Status
	Reason SkipReason
	Detail string
	Err    error
}

// Published returns a success outcome.
func Published() Outcome {
	return Outcome{Status: StatusPublished}
}

// Skipped returns a skip outcome with a reason.
func Skipped(reason SkipReason, detail string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason, Detail: detail}
}

// Failed returns a failure outcome wrapping the cause.
func Failed(detail string, err error) Outcome {
	return Outcome{Status: StatusFailed, Detail: detail, Err: err}
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusSkipped:
		if o.Detail != "" {
			return fmt.Sprintf("skipped (%s): %s", o.Reason, o.Detail)
		}
		return fmt.Sprintf("skipped (%s)", o.Reason)
	case StatusFailed:
		if o.Err != nil {
			return fmt.Sprintf("failed: %s: %v", o.Detail, o.Err)
		}
		return fmt.Sprintf("failed: %s", o.Detail)
	default:
		return string(o.Status)
	}
}

// RunReport aggregates outcomes across one scan run.
type RunReport struct {
	RunID           string
	EmailsScanned   int
	OffersExtracted int
	Published       int
	Failed          int
	Skips           map[SkipReason]int
}

// NewRunReport returns an empty report for a run.
func NewRunReport(runID string) *RunReport {
	return &RunReport{RunID: runID, Skips: make(map[SkipReason]int)}
}

// Record tallies one outcome.
func (r *RunReport) Record(o Outcome) {
	switch o.Status {
	case StatusPublished:
		r.Published++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skips[o.Reason]++
	}
}

// Skipped returns the total number of skipped units.
func (r *RunReport) Skipped() int {
	total := 0
	for _, n := range r.Skips {
		total += n
	}
	return total
}

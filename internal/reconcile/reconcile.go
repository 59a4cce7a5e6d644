// Package reconcile decides, per job offer, whether a matching calendar
// entry already exists and computes an availability hint against a second
// calendar before publication.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docwalter/shutscan/internal/types"
)

// Google Calendar color ids used as the advisory availability hint.
const (
	ColorFree = "10" // basil
	ColorBusy = "11" // tomato
)

// Event is the calendar entry shape at the collaborator boundary. Start and
// End are all-day dates; End is exclusive per the calendar convention.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       string // YYYY-MM-DD
	End         string // YYYY-MM-DD, exclusive
	TimeZone    string
	ColorID     string
}

// EventStore is the calendar collaborator seam consumed here and
// implemented by calendarstore.
type EventStore interface {
	// Overlapping returns events in the calendar whose window overlaps
	// [start, end], optionally filtered by matching text.
	Overlapping(ctx context.Context, calendarID, textFilter string, start, end time.Time) ([]Event, error)
	// Insert stores a new event.
	Insert(ctx context.Context, calendarID string, ev Event) (Event, error)
}

// Reconciler performs the dedup-and-availability check for one target
// calendar and publishes accepted offers.
type Reconciler struct {
	store          EventStore
	calendarID     string
	availabilityID string
	zone           string
	maxSpanDays    int
	dryRun         bool
	log            *zap.Logger
}

// Options configures a Reconciler.
type Options struct {
	CalendarID     string
	AvailabilityID string // optional second calendar for the busy/free hint
	TimeZone       string
	MaxSpanDays    int // deterministic cross-check of the one-month rule
	DryRun         bool
}

// New builds a Reconciler over an event store.
func New(store EventStore, opts Options, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		store:          store,
		calendarID:     opts.CalendarID,
		availabilityID: opts.AvailabilityID,
		zone:           opts.TimeZone,
		maxSpanDays:    opts.MaxSpanDays,
		dryRun:         opts.DryRun,
		log:            log,
	}
}

// Publish reconciles one offer against the target calendar and, when no
// duplicate exists, inserts it with the availability color hint. A failure
// here never aborts the batch; the caller records the outcome and moves on.
func (r *Reconciler) Publish(ctx context.Context, offer types.JobOffer) types.Outcome {
	summary := offer.Summary()

	start, end, err := offer.Span(r.zone)
	if err != nil {
		return types.Skipped(types.SkipInvalidDates, summary)
	}

	if r.maxSpanDays > 0 {
		if days := int(end.Sub(start).Hours()/24) + 1; days > r.maxSpanDays {
			return types.Skipped(types.SkipTooLong,
				fmt.Sprintf("%s spans %d days (limit %d)", summary, days, r.maxSpanDays))
		}
	}

	// Dedup window covers the stored (inclusive) working days.
	windowEnd := end.Add(24*time.Hour - time.Second)
	existing, err := r.store.Overlapping(ctx, r.calendarID, summary, start, windowEnd)
	if err != nil {
		return types.Failed("duplicate check", err)
	}
	if len(existing) > 0 {
		return types.Skipped(types.SkipDuplicate,
			fmt.Sprintf("%s on %s", summary, offer.StartDate))
	}

	event := r.buildEvent(offer, summary, end)
	event.ColorID = r.availabilityHint(ctx, start, windowEnd)

	if r.dryRun {
		return types.Skipped(types.SkipDryRun, summary)
	}

	inserted, err := r.store.Insert(ctx, r.calendarID, event)
	if err != nil {
		return types.Failed("calendar insert", err)
	}
	r.log.Info("calendar entry added",
		zap.String("summary", summary),
		zap.String("event_id", inserted.ID))
	return types.Published()
}

// availabilityHint queries the reference calendar for overlapping events.
// Advisory only: a query failure logs and yields no hint rather than
// blocking publication.
func (r *Reconciler) availabilityHint(ctx context.Context, start, end time.Time) string {
	if r.availabilityID == "" {
		return ""
	}
	events, err := r.store.Overlapping(ctx, r.availabilityID, "", start, end)
	if err != nil {
		r.log.Warn("availability check failed, publishing without hint", zap.Error(err))
		return ""
	}
	if len(events) > 0 {
		return ColorBusy
	}
	return ColorFree
}

// buildEvent assembles the all-day calendar event. The stored end date is
// the last working day; the calendar treats the end boundary as exclusive,
// so the published end date is one day later.
func (r *Reconciler) buildEvent(offer types.JobOffer, summary string, end time.Time) Event {
	return Event{
		Summary:     summary,
		Description: describeOffer(offer),
		Location:    offer.Workplace,
		Start:       offer.StartDate,
		End:         end.AddDate(0, 0, 1).Format(types.DateLayout),
		TimeZone:    r.zone,
	}
}

func describeOffer(offer types.JobOffer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Link to Email Thread: %s\n\n", offer.EmailThreadLink)
	fmt.Fprintf(&sb, "Site: %s\n", offer.Workplace)
	fmt.Fprintf(&sb, "Day Shift Rate: %v\n", offer.DayShiftRate)
	fmt.Fprintf(&sb, "Night Shift Rate: %v\n\n", offer.NightShiftRate)
	fmt.Fprintf(&sb, "Position: %s\n", offer.Position)
	fmt.Fprintf(&sb, "Clean Shaven: %v\n\n", offer.CleanShaven)
	fmt.Fprintf(&sb, "Received: %s\n", offer.Received.Display())
	fmt.Fprintf(&sb, "Contact Email: mailto:%s\n", offer.EmailAddress)
	fmt.Fprintf(&sb, "Phone: tel:%s\n", offer.ContactNumber)
	return sb.String()
}

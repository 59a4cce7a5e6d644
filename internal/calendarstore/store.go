// Package calendarstore adapts the Google Calendar collaborator to the
// reconcile.EventStore seam, plus the maintenance operations the CLI
// exposes (list, clear).
package calendarstore

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/docwalter/shutscan/internal/reconcile"
)

// Store wraps the Calendar API service.
type Store struct {
	svc *calendar.Service
}

// CalendarInfo identifies one visible calendar.
type CalendarInfo struct {
	ID      string
	Summary string
}

// New builds the Calendar-backed store. Credential problems are fatal.
func New(ctx context.Context, opts ...option.ClientOption) (*Store, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Store{svc: svc}, nil
}

// Overlapping implements reconcile.EventStore.
func (s *Store) Overlapping(ctx context.Context, calendarID, textFilter string, start, end time.Time) ([]reconcile.Event, error) {
	call := s.svc.Events.List(calendarID).
		SingleEvents(true).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		Context(ctx)
	if textFilter != "" {
		call = call.Q(textFilter)
	}

	res, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("event query failed for %s: %w", calendarID, err)
	}

	events := make([]reconcile.Event, 0, len(res.Items))
	for _, item := range res.Items {
		events = append(events, fromAPI(item))
	}
	return events, nil
}

// Insert implements reconcile.EventStore.
func (s *Store) Insert(ctx context.Context, calendarID string, ev reconcile.Event) (reconcile.Event, error) {
	inserted, err := s.svc.Events.Insert(calendarID, toAPI(ev)).Context(ctx).Do()
	if err != nil {
		return reconcile.Event{}, fmt.Errorf("event insert failed for %s: %w", calendarID, err)
	}
	return fromAPI(inserted), nil
}

// Calendars lists the calendars visible to the authenticated account.
func (s *Store) Calendars(ctx context.Context) ([]CalendarInfo, error) {
	res, err := s.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar list failed: %w", err)
	}

	infos := make([]CalendarInfo, 0, len(res.Items))
	for _, item := range res.Items {
		infos = append(infos, CalendarInfo{ID: item.Id, Summary: item.Summary})
	}
	return infos, nil
}

// Clear deletes every event from a calendar, paging through results. It
// returns the number of events deleted; individual delete failures are
// counted but do not stop the sweep.
func (s *Store) Clear(ctx context.Context, calendarID string) (deleted int, failed int, err error) {
	pageToken := ""
	for {
		call := s.svc.Events.List(calendarID).
			ShowDeleted(false).
			MaxResults(2500).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return deleted, failed, fmt.Errorf("event list failed for %s: %w", calendarID, err)
		}
		if len(res.Items) == 0 {
			return deleted, failed, nil
		}

		for _, item := range res.Items {
			if err := s.svc.Events.Delete(calendarID, item.Id).Context(ctx).Do(); err != nil {
				failed++
				continue
			}
			deleted++
		}

		pageToken = res.NextPageToken
		if pageToken == "" {
			return deleted, failed, nil
		}
	}
}

func toAPI(ev reconcile.Event) *calendar.Event {
	return &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		ColorId:     ev.ColorID,
		Start:       &calendar.EventDateTime{Date: ev.Start, TimeZone: ev.TimeZone},
		End:         &calendar.EventDateTime{Date: ev.End, TimeZone: ev.TimeZone},
	}
}

func fromAPI(item *calendar.Event) reconcile.Event {
	ev := reconcile.Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		ColorID:     item.ColorId,
	}
	if item.Start != nil {
		ev.Start = item.Start.Date
		ev.TimeZone = item.Start.TimeZone
	}
	if item.End != nil {
		ev.End = item.End.Date
	}
	return ev
}

package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"

	"github.com/docwalter/shutscan/internal/extraction"
	"github.com/docwalter/shutscan/internal/mailbox"
	"github.com/docwalter/shutscan/internal/reconcile"
	"github.com/docwalter/shutscan/internal/types"
)

const testZone = "Australia/Perth"

// fakeMail serves canned messages keyed by id.
type fakeMail struct {
	refs      []mailbox.Ref
	msgs      map[string]*gmail.Message
	searchErr error
	fetchErr  map[string]error
	gotQuery  string
}

func (f *fakeMail) Search(_ context.Context, query string, _ int64) ([]mailbox.Ref, error) {
	f.gotQuery = query
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.refs, nil
}

func (f *fakeMail) Fetch(_ context.Context, id string) (*gmail.Message, error) {
	if err := f.fetchErr[id]; err != nil {
		return nil, err
	}
	return f.msgs[id], nil
}

// fakeLLM maps a substring of the input body to a canned model response.
type fakeLLM struct {
	responses map[string]string
	err       error
}

func (f *fakeLLM) Generate(_ context.Context, _, input string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for key, resp := range f.responses {
		if strings.Contains(input, key) {
			return resp, nil
		}
	}
	return "I could not find any job offers in this email.", nil
}

func (f *fakeLLM) Close() error { return nil }

// fakeStore is an in-memory EventStore with all-day overlap semantics.
type fakeStore struct {
	events    map[string][]reconcile.Event
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: make(map[string][]reconcile.Event)}
}

func (s *fakeStore) Overlapping(_ context.Context, calendarID, textFilter string, start, end time.Time) ([]reconcile.Event, error) {
	var hits []reconcile.Event
	for _, ev := range s.events[calendarID] {
		if textFilter != "" && !strings.Contains(ev.Summary, textFilter) {
			continue
		}
		evStart, err := time.Parse(types.DateLayout, ev.Start)
		if err != nil {
			continue
		}
		evEnd, err := time.Parse(types.DateLayout, ev.End)
		if err != nil {
			continue
		}
		// End is exclusive.
		if evStart.Before(end) && evEnd.After(start) {
			hits = append(hits, ev)
		}
	}
	return hits, nil
}

func (s *fakeStore) Insert(_ context.Context, calendarID string, ev reconcile.Event) (reconcile.Event, error) {
	if s.insertErr != nil {
		return reconcile.Event{}, s.insertErr
	}
	ev.ID = "evt-1"
	s.events[calendarID] = append(s.events[calendarID], ev)
	return ev, nil
}

// fakeSheet records appends.
type fakeSheet struct {
	headerCalls int
	appended    []types.JobOffer
	headerErr   error
	appendErr   error
}

func (f *fakeSheet) EnsureHeader(context.Context) error {
	f.headerCalls++
	return f.headerErr
}

func (f *fakeSheet) AppendOffers(_ context.Context, offers []types.JobOffer) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, offers...)
	return nil
}

const offerResponse = `{
  "is_work_opportunity": true,
  "workplace": ["Roy Hill"],
  "start_date": ["2025-08-04"],
  "end_date": ["2025-08-08"],
  "day_shift_rate": [655],
  "night_shift_rate": [720.5],
  "position": ["Mechanical Fitter"],
  "clean_shaven": [true],
  "client_name": ["downergroup"],
  "contact_number": ["0400 123 456"],
  "email_address": ["recruit@downergroup.com"]
}`

const notOpportunityResponse = `{
  "is_work_opportunity": false,
  "workplace": [],
  "start_date": [],
  "end_date": [],
  "day_shift_rate": [],
  "night_shift_rate": [],
  "position": [],
  "clean_shaven": [],
  "client_name": [],
  "contact_number": [],
  "email_address": []
}`

func plainMessage(id, threadID, subject, from, body string) *gmail.Message {
	return &gmail.Message{
		Id:           id,
		ThreadId:     threadID,
		InternalDate: 1753579800000, // 2025-07-27 09:30 AWST
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: subject},
				{Name: "From", Value: from},
			},
			Body: &gmail.MessagePartBody{
				Data: base64.RawURLEncoding.EncodeToString([]byte(body)),
			},
		},
	}
}

func testRunner(t *testing.T, mail mailbox.Service, client *fakeLLM, store reconcile.EventStore, sheet SheetSink) *Runner {
	t.Helper()
	log := zap.NewNop()
	engine := extraction.NewEngine(client, log)
	rec := reconcile.New(store, reconcile.Options{
		CalendarID:  "primary",
		TimeZone:    testZone,
		MaxSpanDays: 31,
	}, log)
	return NewRunner(mail, engine, rec, sheet, log)
}

func testOptions() Options {
	return Options{
		KeywordList:   []string{"shutdown", "fitter"},
		LookbackHours: 24,
		MaxResults:    500,
		TimeZone:      testZone,
		Concurrency:   1,
		Now:           func() time.Time { return time.Date(2025, 7, 27, 12, 0, 0, 0, time.UTC) },
	}
}

func TestRunPublishesOfferAndAppendsToSheet(t *testing.T) {
	mail := &fakeMail{
		refs: []mailbox.Ref{{ID: "m1", ThreadID: "t1"}, {ID: "m2", ThreadID: "t2"}},
		msgs: map[string]*gmail.Message{
			"m1": plainMessage("m1", "t1", "Shutdown crew needed", "recruiter@agency.com", "OPPORTUNITY Roy Hill shutdown"),
			"m2": plainMessage("m2", "t2", "Weekly newsletter", "news@agency.com", "nothing to see"),
		},
	}
	client := &fakeLLM{responses: map[string]string{"OPPORTUNITY": offerResponse}}
	store := newFakeStore()
	sheet := &fakeSheet{}

	runner := testRunner(t, mail, client, store, sheet)
	report, published, err := runner.Run(context.Background(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, report.EmailsScanned)
	assert.Equal(t, 1, report.OffersExtracted)
	assert.Equal(t, 1, report.Published)
	assert.Equal(t, 1, report.Skips[types.SkipUnparseable])
	assert.Zero(t, report.Failed)

	require.Len(t, published, 1)
	offer := published[0]
	assert.Equal(t, "Roy Hill", offer.Workplace)
	assert.Equal(t, "t1", offer.ThreadID)
	assert.Equal(t, "Shutdown crew needed", offer.EmailSubject)
	assert.Equal(t, "recruiter@agency.com", offer.Sender)

	require.Len(t, store.events["primary"], 1)
	ev := store.events["primary"][0]
	assert.Equal(t, "Roy Hill | $655.00/day & $720.50/night | downergroup", ev.Summary)
	assert.Equal(t, "2025-08-04", ev.Start)
	assert.Equal(t, "2025-08-09", ev.End, "published end is exclusive")

	assert.Equal(t, 1, sheet.headerCalls)
	require.Len(t, sheet.appended, 1)
	assert.Equal(t, "Roy Hill", sheet.appended[0].Workplace)
}

func TestRunDeduplicatesWithinOneRun(t *testing.T) {
	// Two emails carrying the same offer: the first publishes, the second
	// is a duplicate because reconciliation is sequential.
	mail := &fakeMail{
		refs: []mailbox.Ref{{ID: "m1", ThreadID: "t1"}, {ID: "m2", ThreadID: "t2"}},
		msgs: map[string]*gmail.Message{
			"m1": plainMessage("m1", "t1", "Shutdown crew", "a@x.com", "OPPORTUNITY first copy"),
			"m2": plainMessage("m2", "t2", "Fwd: Shutdown crew", "b@x.com", "OPPORTUNITY second copy"),
		},
	}
	client := &fakeLLM{responses: map[string]string{"OPPORTUNITY": offerResponse}}
	store := newFakeStore()

	runner := testRunner(t, mail, client, store, &fakeSheet{})
	report, published, err := runner.Run(context.Background(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, report.OffersExtracted)
	assert.Equal(t, 1, report.Published)
	assert.Equal(t, 1, report.Skips[types.SkipDuplicate])
	assert.Len(t, published, 1)
	assert.Len(t, store.events["primary"], 1)
}

func TestRunFetchFailureSkipsMessageOnly(t *testing.T) {
	mail := &fakeMail{
		refs: []mailbox.Ref{{ID: "m1", ThreadID: "t1"}, {ID: "m2", ThreadID: "t2"}},
		msgs: map[string]*gmail.Message{
			"m2": plainMessage("m2", "t2", "Shutdown crew", "a@x.com", "OPPORTUNITY Roy Hill"),
		},
		fetchErr: map[string]error{"m1": errors.New("transient 500")},
	}
	client := &fakeLLM{responses: map[string]string{"OPPORTUNITY": offerResponse}}
	store := newFakeStore()

	runner := testRunner(t, mail, client, store, &fakeSheet{})
	report, published, err := runner.Run(context.Background(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, report.EmailsScanned)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, published, 1)
}

func TestRunSearchFailureIsFatal(t *testing.T) {
	mail := &fakeMail{searchErr: errors.New("invalid_grant")}
	runner := testRunner(t, mail, &fakeLLM{}, newFakeStore(), nil)

	_, _, err := runner.Run(context.Background(), testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox search")
}

func TestRunNotOpportunityCountedAsSkip(t *testing.T) {
	mail := &fakeMail{
		refs: []mailbox.Ref{{ID: "m1", ThreadID: "t1"}},
		msgs: map[string]*gmail.Message{
			"m1": plainMessage("m1", "t1", "Newsletter", "a@x.com", "NEWSLETTER weekly digest"),
		},
	}
	client := &fakeLLM{responses: map[string]string{"NEWSLETTER": notOpportunityResponse}}

	runner := testRunner(t, mail, client, newFakeStore(), nil)
	report, published, err := runner.Run(context.Background(), testOptions())
	require.NoError(t, err)

	assert.Empty(t, published)
	assert.Equal(t, 1, report.Skips[types.SkipNotOpportunity])
}

func TestRunModelErrorRecordedAsFailure(t *testing.T) {
	mail := &fakeMail{
		refs: []mailbox.Ref{{ID: "m1", ThreadID: "t1"}},
		msgs: map[string]*gmail.Message{
			"m1": plainMessage("m1", "t1", "Shutdown crew", "a@x.com", "OPPORTUNITY Roy Hill"),
		},
	}
	client := &fakeLLM{err: errors.New("quota exceeded")}

	runner := testRunner(t, mail, client, newFakeStore(), nil)
	report, published, err := runner.Run(context.Background(), testOptions())
	require.NoError(t, err)

	assert.Empty(t, published)
	assert.Equal(t, 1, report.Failed)
}

func TestRunConcurrentExtractionKeepsMessageOrder(t *testing.T) {
	// Three distinct offers processed with a wide pool must still publish
	// in message order.
	sites := []string{"Roy Hill", "Tom Price", "Newman"}
	refs := make([]mailbox.Ref, len(sites))
	msgs := make(map[string]*gmail.Message, len(sites))
	responses := make(map[string]string, len(sites))
	for i, site := range sites {
		id := "m" + site
		refs[i] = mailbox.Ref{ID: id, ThreadID: "t" + site}
		msgs[id] = plainMessage(id, "t"+site, "Shutdown at "+site, "a@x.com", "SITE:"+site)
		responses["SITE:"+site] = strings.ReplaceAll(offerResponse, "Roy Hill", site)
	}
	mail := &fakeMail{refs: refs, msgs: msgs}
	client := &fakeLLM{responses: responses}
	store := newFakeStore()

	runner := testRunner(t, mail, client, store, nil)
	opts := testOptions()
	opts.Concurrency = 4
	report, published, err := runner.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Published)
	require.Len(t, published, 3)
	for i, site := range sites {
		assert.Equal(t, site, published[i].Workplace)
	}
}

func TestRunSheetErrorDoesNotFailRun(t *testing.T) {
	mail := &fakeMail{
		refs: []mailbox.Ref{{ID: "m1", ThreadID: "t1"}},
		msgs: map[string]*gmail.Message{
			"m1": plainMessage("m1", "t1", "Shutdown crew", "a@x.com", "OPPORTUNITY Roy Hill"),
		},
	}
	client := &fakeLLM{responses: map[string]string{"OPPORTUNITY": offerResponse}}
	sheet := &fakeSheet{appendErr: errors.New("permission denied")}

	runner := testRunner(t, mail, client, newFakeStore(), sheet)
	report, published, err := runner.Run(context.Background(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Published)
	assert.Len(t, published, 1)
}

func TestRunBuildsQueryFromLookbackAndKeywords(t *testing.T) {
	mail := &fakeMail{}
	runner := testRunner(t, mail, &fakeLLM{}, newFakeStore(), nil)

	_, _, err := runner.Run(context.Background(), testOptions())
	require.NoError(t, err)

	after := time.Date(2025, 7, 26, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, fmt.Sprintf("after:%d (shutdown OR fitter)", after.Unix()), mail.gotQuery)
}

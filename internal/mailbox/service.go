package mailbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/docwalter/shutscan/internal/types"
)

// gmailUser addresses the authenticated mailbox.
const gmailUser = "me"

// Ref identifies one message returned by a search.
type Ref struct {
	ID       string
	ThreadID string
}

// Service is the mail collaborator contract consumed by the pipeline.
type Service interface {
	// Search returns refs for messages matching the query, in whatever
	// order the collaborator chooses.
	Search(ctx context.Context, query string, maxResults int64) ([]Ref, error)
	// Fetch retrieves the full multi-part message for a ref.
	Fetch(ctx context.Context, id string) (*gmail.Message, error)
}

// GmailService implements Service on the Gmail API.
type GmailService struct {
	svc *gmail.Service
}

// NewGmail builds the Gmail-backed service. Credential problems surface
// here or on the first call and are fatal to the run.
func NewGmail(ctx context.Context, opts ...option.ClientOption) (*GmailService, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &GmailService{svc: svc}, nil
}

// Search implements Service.
func (g *GmailService) Search(ctx context.Context, query string, maxResults int64) ([]Ref, error) {
	res, err := g.svc.Users.Messages.List(gmailUser).
		Q(query).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("message search failed: %w", err)
	}

	refs := make([]Ref, 0, len(res.Messages))
	for _, m := range res.Messages {
		refs = append(refs, Ref{ID: m.Id, ThreadID: m.ThreadId})
	}
	return refs, nil
}

// Fetch implements Service.
func (g *GmailService) Fetch(ctx context.Context, id string) (*gmail.Message, error) {
	msg, err := g.svc.Users.Messages.Get(gmailUser, id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("message fetch failed for %s: %w", id, err)
	}
	return msg, nil
}

// BuildQuery forms the candidate-filter query: a lower-bound receipt time
// plus a keyword-OR group. This cheap filter excludes obviously irrelevant
// mail before any model call.
func BuildQuery(after time.Time, keywords []string) string {
	return fmt.Sprintf("after:%d (%s)", after.Unix(), strings.Join(keywords, " OR "))
}

// RecordFromMessage flattens a fetched message into an EmailRecord: header
// fields, thread id, receipt time localized into the display zone, and the
// extracted plain-text body.
func RecordFromMessage(msg *gmail.Message, zone string) (types.EmailRecord, error) {
	subject := "(No Subject)"
	sender := "(Unknown)"
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "Subject":
				subject = h.Value
			case "From":
				sender = h.Value
			}
		}
	}

	received, err := types.NewReceivedTime(time.UnixMilli(msg.InternalDate).UTC(), zone)
	if err != nil {
		return types.EmailRecord{}, err
	}

	return types.EmailRecord{
		Subject:  subject,
		Sender:   sender,
		Body:     ExtractBody(msg.Payload),
		ThreadID: msg.ThreadId,
		Received: received,
	}, nil
}

// Package pipeline orchestrates one scan run: search the mailbox, flatten
// each message, extract job records with the model, normalize them into
// offers, reconcile against the calendar, and publish accepted offers to
// the calendar and sheet.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/docwalter/shutscan/internal/extraction"
	"github.com/docwalter/shutscan/internal/mailbox"
	"github.com/docwalter/shutscan/internal/normalize"
	"github.com/docwalter/shutscan/internal/reconcile"
	"github.com/docwalter/shutscan/internal/types"
)

// SheetSink is the tabular collaborator seam. Nil means no sheet is
// configured.
type SheetSink interface {
	EnsureHeader(ctx context.Context) error
	AppendOffers(ctx context.Context, offers []types.JobOffer) error
}

// Options holds everything a run needs, passed in explicitly at
// construction time.
type Options struct {
	KeywordList   []string
	LookbackHours int
	MaxResults    int64
	TimeZone      string
	Concurrency   int // 1 preserves strictly sequential extraction
	Now           func() time.Time
}

// Runner wires the collaborators together.
type Runner struct {
	mail       mailbox.Service
	engine     *extraction.Engine
	normalizer *normalize.Normalizer
	reconciler *reconcile.Reconciler
	sheet      SheetSink
	log        *zap.Logger
}

// NewRunner builds a Runner. sheet may be nil.
func NewRunner(mail mailbox.Service, engine *extraction.Engine, reconciler *reconcile.Reconciler, sheet SheetSink, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		mail:       mail,
		engine:     engine,
		normalizer: normalize.New(log),
		reconciler: reconciler,
		sheet:      sheet,
		log:        log,
	}
}

// extracted pairs one email with its extraction result, keyed by message
// order so the reconciler stage stays deterministic regardless of worker
// scheduling.
type extracted struct {
	email   types.EmailRecord
	resp    *types.ExtractionResponse
	outcome types.Outcome
}

// Run executes one scan. Per-unit failures are recorded in the report and
// never abort the batch; only collaborator construction and mailbox search
// failures (credential class) surface as errors.
func (r *Runner) Run(ctx context.Context, opts Options) (*types.RunReport, []types.JobOffer, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	report := types.NewRunReport(uuid.NewString())
	log := r.log.With(zap.String("run_id", report.RunID))

	after := now().Add(-time.Duration(opts.LookbackHours) * time.Hour)
	query := mailbox.BuildQuery(after, opts.KeywordList)
	log.Info("searching mailbox", zap.String("query", query), zap.Int64("max_results", opts.MaxResults))

	refs, err := r.mail.Search(ctx, query, opts.MaxResults)
	if err != nil {
		return report, nil, fmt.Errorf("mailbox search: %w", err)
	}

	emails := r.fetchAll(ctx, refs, opts.TimeZone, report, log)
	report.EmailsScanned = len(emails)
	log.Info("emails retrieved", zap.Int("count", len(emails)))

	results := r.extractAll(ctx, emails, opts, now())

	offers := r.collectOffers(results, report, log)
	report.OffersExtracted = len(offers)
	log.Info("job offers extracted", zap.Int("count", len(offers)))

	published := r.publishAll(ctx, offers, report, log)

	if r.sheet != nil && len(published) > 0 {
		if err := r.sheet.EnsureHeader(ctx); err != nil {
			log.Error("sheet header check failed", zap.Error(err))
		} else if err := r.sheet.AppendOffers(ctx, published); err != nil {
			log.Error("sheet append failed", zap.Error(err))
		}
	}

	log.Info("run complete",
		zap.Int("emails", report.EmailsScanned),
		zap.Int("offers", report.OffersExtracted),
		zap.Int("published", report.Published),
		zap.Int("skipped", report.Skipped()),
		zap.Int("failed", report.Failed))
	return report, published, nil
}

// fetchAll retrieves and flattens each message sequentially. A fetch
// failure skips that message only.
func (r *Runner) fetchAll(ctx context.Context, refs []mailbox.Ref, zone string, report *types.RunReport, log *zap.Logger) []types.EmailRecord {
	emails := make([]types.EmailRecord, 0, len(refs))
	for _, ref := range refs {
		msg, err := r.mail.Fetch(ctx, ref.ID)
		if err != nil {
			log.Error("message fetch failed", zap.String("id", ref.ID), zap.Error(err))
			report.Record(types.Failed("message fetch", err))
			continue
		}
		rec, err := mailbox.RecordFromMessage(msg, zone)
		if err != nil {
			log.Error("message flatten failed", zap.String("id", ref.ID), zap.Error(err))
			report.Record(types.Failed("message flatten", err))
			continue
		}
		emails = append(emails, rec)
	}
	return emails
}

// extractAll fans extraction out through a bounded worker pool. Results
// land in message order; the extraction engine never returns a group
// error, so one email's failure cannot cancel its siblings.
func (r *Runner) extractAll(ctx context.Context, emails []types.EmailRecord, opts Options, today time.Time) []extracted {
	results := make([]extracted, len(emails))

	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, email := range emails {
		g.Go(func() error {
			resp, outcome := r.engine.Extract(gctx, email.Body, today)
			results[i] = extracted{email: email, resp: resp, outcome: outcome}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// collectOffers normalizes extraction results sequentially. A panic while
// flattening one email is contained to that email.
func (r *Runner) collectOffers(results []extracted, report *types.RunReport, log *zap.Logger) []types.JobOffer {
	var offers []types.JobOffer
	for _, res := range results {
		if res.resp == nil {
			report.Record(res.outcome)
			if res.outcome.Status == types.StatusFailed {
				log.Error("extraction failed", zap.String("email", res.email.Preview()), zap.Error(res.outcome.Err))
			} else if res.outcome.Reason == types.SkipSchema {
				log.Warn("extraction response violated schema",
					zap.String("email", res.email.Preview()),
					zap.String("detail", res.outcome.Detail))
			}
			continue
		}
		offers = append(offers, r.normalizeOne(res, report, log)...)
	}
	return offers
}

func (r *Runner) normalizeOne(res extracted, report *types.RunReport, log *zap.Logger) (offers []types.JobOffer) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("normalization panicked",
				zap.String("email", res.email.Preview()),
				zap.Any("panic", p))
			report.Record(types.Failed("normalization panic", fmt.Errorf("%v", p)))
			offers = nil
		}
	}()

	offers, outcome := r.normalizer.Normalize(res.resp, res.email)
	if len(offers) == 0 {
		report.Record(outcome)
	}
	return offers
}

// publishAll reconciles offers strictly sequentially so the duplicate
// check never races an in-flight insert of the same summary and window.
func (r *Runner) publishAll(ctx context.Context, offers []types.JobOffer, report *types.RunReport, log *zap.Logger) []types.JobOffer {
	var published []types.JobOffer
	for _, offer := range offers {
		outcome := r.reconciler.Publish(ctx, offer)
		report.Record(outcome)
		switch outcome.Status {
		case types.StatusPublished:
			published = append(published, offer)
		case types.StatusFailed:
			log.Error("offer publication failed",
				zap.String("summary", offer.Summary()),
				zap.Error(outcome.Err))
		case types.StatusSkipped:
			if outcome.Reason == types.SkipDuplicate {
				log.Info("skipped duplicate event", zap.String("detail", outcome.Detail))
			}
		}
	}
	return published
}

// Package normalize expands a wide extraction response (parallel arrays,
// one entry per job mention) into flat JobOffer records, repairing ragged
// arrays by padding and attaching provenance from the originating email.
package normalize

import (
	"go.uber.org/zap"

	"github.com/docwalter/shutscan/internal/types"
)

// Normalizer flattens extraction responses into job offers.
type Normalizer struct {
	log *zap.Logger
}

// New builds a Normalizer.
func New(log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{log: log}
}

// Normalize fans the response out into one JobOffer per list index. The
// input response is never mutated; when list lengths disagree, a
// length-normalized copy is built by repeating each list's last element
// (best-effort repair, not a correctness guarantee: padded values may
// misattribute details when the model's output was genuinely inconsistent).
// Offers whose boundary dates do not both parse as YYYY-MM-DD are dropped.
func (n *Normalizer) Normalize(resp *types.ExtractionResponse, email types.EmailRecord) ([]types.JobOffer, types.Outcome) {
	maxLen := resp.MaxFieldLength()
	if maxLen == 0 {
		return nil, types.Skipped(types.SkipEmptyResponse, email.Preview())
	}

	if resp.Ragged() {
		n.log.Warn("inconsistent list lengths in extraction response, padding to max",
			zap.String("email", email.Preview()),
			zap.String("lengths", resp.DescribeLengths()))
	}
	padded := pad(resp, maxLen)

	offers := make([]types.JobOffer, 0, maxLen)
	dropped := 0
	for i := 0; i < maxLen; i++ {
		offer := types.JobOffer{
			Workplace:      padded.Workplace[i],
			StartDate:      padded.StartDate[i],
			EndDate:        padded.EndDate[i],
			DayShiftRate:   padded.DayShiftRate[i],
			NightShiftRate: padded.NightShiftRate[i],
			Position:       padded.Position[i],
			CleanShaven:    padded.CleanShaven[i],
			ClientName:     padded.ClientName[i],
			ContactNumber:  string(padded.ContactNumber[i]),
			EmailAddress:   padded.EmailAddress[i],

			ThreadID:        email.ThreadID,
			EmailThreadLink: email.ThreadLink(),
			EmailSubject:    email.Subject,
			Sender:          email.Sender,
			Received:        email.Received,
		}

		if !offer.HasDates() {
			dropped++
			n.log.Warn("dropping offer without parseable boundary dates",
				zap.String("email", email.Preview()),
				zap.String("start_date", offer.StartDate),
				zap.String("end_date", offer.EndDate))
			continue
		}
		offers = append(offers, offer)
	}

	if len(offers) == 0 && dropped > 0 {
		return nil, types.Skipped(types.SkipInvalidDates, email.Preview())
	}
	return offers, types.Outcome{}
}

// pad returns a copy of resp with every list lengthened to n by repeating
// its own last element, or the zero value when the list was empty. Lists
// are never truncated. When lengths already agree the copy is structurally
// identical to the input.
func pad(resp *types.ExtractionResponse, n int) *types.ExtractionResponse {
	return &types.ExtractionResponse{
		IsWorkOpportunity: resp.IsWorkOpportunity,
		Workplace:         padStrings(resp.Workplace, n),
		StartDate:         padStrings(resp.StartDate, n),
		EndDate:           padStrings(resp.EndDate, n),
		DayShiftRate:      padFloats(resp.DayShiftRate, n),
		NightShiftRate:    padFloats(resp.NightShiftRate, n),
		Position:          padStrings(resp.Position, n),
		CleanShaven:       padBools(resp.CleanShaven, n),
		ClientName:        padStrings(resp.ClientName, n),
		ContactNumber:     padFlex(resp.ContactNumber, n),
		EmailAddress:      padStrings(resp.EmailAddress, n),
	}
}

func padStrings(in []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		switch {
		case i < len(in):
			out[i] = in[i]
		case len(in) > 0:
			out[i] = in[len(in)-1]
		}
	}
	return out
}

func padFloats(in []float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		switch {
		case i < len(in):
			out[i] = in[i]
		case len(in) > 0:
			out[i] = in[len(in)-1]
		}
	}
	return out
}

func padBools(in []bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		switch {
		case i < len(in):
			out[i] = in[i]
		case len(in) > 0:
			out[i] = in[len(in)-1]
		}
	}
	return out
}

func padFlex(in []types.FlexString, n int) []types.FlexString {
	out := make([]types.FlexString, n)
	for i := range out {
		switch {
		case i < len(in):
			out[i] = in[i]
		case len(in) > 0:
			out[i] = in[len(in)-1]
		}
	}
	return out
}

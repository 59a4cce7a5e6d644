package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docwalter/shutscan/internal/types"
)

func sampleEmail(t *testing.T) types.EmailRecord {
	t.Helper()
	received, err := types.NewReceivedTime(time.Date(2025, 7, 27, 1, 30, 0, 0, time.UTC), "Australia/Perth")
	require.NoError(t, err)
	return types.EmailRecord{
		Subject:  "Shutdown crew needed",
		Sender:   "recruit@downergroup.com.au",
		Body:     "Hi, we are looking for fitters...",
		ThreadID: "17923a4a9efc1234",
		Received: received,
	}
}

func evenResponse() *types.ExtractionResponse {
	return &types.ExtractionResponse{
		IsWorkOpportunity: true,
		Workplace:         []string{"Roy Hill", "FMG Cloudbreak"},
		StartDate:         []string{"2025-08-01", "2025-08-10"},
		EndDate:           []string{"2025-08-05", "2025-08-14"},
		DayShiftRate:      []float64{655, 640},
		NightShiftRate:    []float64{720.5, 700},
		Position:          []string{"Fitter", "Rigger"},
		CleanShaven:       []bool{true, false},
		ClientName:        []string{"downergroup", "monadelphous"},
		ContactNumber:     []types.FlexString{"0412345678", "0498765432"},
		EmailAddress:      []string{"a@downergroup.com.au", "b@monadelphous.com.au"},
	}
}

func TestNormalize_EqualLengths(t *testing.T) {
	resp := evenResponse()
	email := sampleEmail(t)

	offers, outcome := New(nil).Normalize(resp, email)
	require.Len(t, offers, 2)
	assert.Equal(t, types.Status(""), outcome.Status)

	first := offers[0]
	assert.Equal(t, "Roy Hill", first.Workplace)
	assert.Equal(t, "2025-08-01", first.StartDate)
	assert.Equal(t, "2025-08-05", first.EndDate)
	assert.Equal(t, 655.0, first.DayShiftRate)
	assert.Equal(t, 720.5, first.NightShiftRate)
	assert.Equal(t, "Fitter", first.Position)
	assert.True(t, first.CleanShaven)
	assert.Equal(t, "downergroup", first.ClientName)
	assert.Equal(t, "0412345678", first.ContactNumber)
	assert.Equal(t, "a@downergroup.com.au", first.EmailAddress)

	// Provenance carried into every offer.
	for _, offer := range offers {
		assert.Equal(t, "17923a4a9efc1234", offer.ThreadID)
		assert.Equal(t, "https://mail.google.com/mail/u/0/#inbox/17923a4a9efc1234", offer.EmailThreadLink)
		assert.Equal(t, "Shutdown crew needed", offer.EmailSubject)
		assert.Equal(t, "recruit@downergroup.com.au", offer.Sender)
	}

	second := offers[1]
	assert.Equal(t, "FMG Cloudbreak", second.Workplace)
	assert.Equal(t, "Rigger", second.Position)
}

func TestNormalize_InputNotMutated(t *testing.T) {
	resp := evenResponse()
	resp.ClientName = []string{"downergroup"} // ragged: one short

	_, _ = New(nil).Normalize(resp, sampleEmail(t))

	assert.Len(t, resp.ClientName, 1, "padding must produce a copy, not mutate the response")
}

func TestNormalize_RaggedRepair(t *testing.T) {
	// Lengths [2,2,1,2,2,2,2,2,2,2]: the short list is padded by repeating
	// its sole element; nothing is truncated.
	resp := evenResponse()
	resp.ClientName = []string{"downergroup"}

	offers, _ := New(nil).Normalize(resp, sampleEmail(t))
	require.Len(t, offers, 2)

	assert.Equal(t, "downergroup", offers[0].ClientName)
	assert.Equal(t, "downergroup", offers[1].ClientName, "padded value repeats the last element")
}

func TestNormalize_RaggedRepair_ThreeJobs(t *testing.T) {
	resp := &types.ExtractionResponse{
		IsWorkOpportunity: true,
		Workplace:         []string{"Roy Hill", "Jimblebar", "Area C"},
		StartDate:         []string{"2025-08-01", "2025-08-02", "2025-08-03"},
		EndDate:           []string{"2025-08-05", "2025-08-06", "2025-08-07"},
		DayShiftRate:      []float64{655},
		NightShiftRate:    []float64{700, 710, 720},
		Position:          []string{"Fitter", "Fitter", "Rigger"},
		CleanShaven:       []bool{true, true, true},
		ClientName:        []string{"ugl", "ugl", "ugl"},
		ContactNumber:     []types.FlexString{"0412345678", "0412345678", "0412345678"},
		EmailAddress:      []string{"a@ugl.com.au", "a@ugl.com.au", "a@ugl.com.au"},
	}

	offers, _ := New(nil).Normalize(resp, sampleEmail(t))
	require.Len(t, offers, 3)

	// The length-1 rate list is padded to 3 by repeating its sole element.
	assert.Equal(t, 655.0, offers[0].DayShiftRate)
	assert.Equal(t, 655.0, offers[1].DayShiftRate)
	assert.Equal(t, 655.0, offers[2].DayShiftRate)
}

func TestNormalize_EmptyListsPadWithZeroValues(t *testing.T) {
	resp := evenResponse()
	resp.ContactNumber = nil
	resp.EmailAddress = []string{}

	offers, _ := New(nil).Normalize(resp, sampleEmail(t))
	require.Len(t, offers, 2)

	assert.Equal(t, "", offers[0].ContactNumber)
	assert.Equal(t, "", offers[1].EmailAddress)
}

func TestNormalize_EmptyResponse(t *testing.T) {
	resp := &types.ExtractionResponse{IsWorkOpportunity: true}

	offers, outcome := New(nil).Normalize(resp, sampleEmail(t))

	assert.Empty(t, offers)
	assert.Equal(t, types.SkipEmptyResponse, outcome.Reason)
}

func TestNormalize_InvalidDatesDropped(t *testing.T) {
	resp := evenResponse()
	resp.StartDate = []string{"next week", "2025-08-10"}

	offers, _ := New(nil).Normalize(resp, sampleEmail(t))
	require.Len(t, offers, 1)
	assert.Equal(t, "FMG Cloudbreak", offers[0].Workplace)
}

func TestNormalize_AllDatesInvalid(t *testing.T) {
	resp := evenResponse()
	resp.StartDate = []string{"TBC", "TBC"}

	offers, outcome := New(nil).Normalize(resp, sampleEmail(t))

	assert.Empty(t, offers)
	assert.Equal(t, types.SkipInvalidDates, outcome.Reason)
}

// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/docwalter/shutscan/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRunReport outputs the run summary with per-reason skip counts.
func (p *Printer) PrintRunReport(report *types.RunReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:       %s\n", report.RunID))
	sb.WriteString(fmt.Sprintf("Emails:    %d\n", report.EmailsScanned))
	sb.WriteString(fmt.Sprintf("Offers:    %d\n", report.OffersExtracted))
	sb.WriteString(fmt.Sprintf("Published: %d\n", report.Published))
	sb.WriteString(fmt.Sprintf("Failed:    %d\n", report.Failed))

	if report.Skipped() > 0 {
		sb.WriteString("\nSkipped:\n")
		reasons := make([]string, 0, len(report.Skips))
		for reason := range report.Skips {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			sb.WriteString(fmt.Sprintf("  • %-26s %d\n", reason, report.Skips[types.SkipReason(reason)]))
		}
	}

	p.printBox("SCAN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOffers outputs the published offers with sites, dates and rates.
func (p *Printer) PrintOffers(offers []types.JobOffer) {
	if len(offers) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Published %d offers:\n\n", len(offers)))

	count := min(len(offers), maxItemsToShow)
	for i := 0; i < count; i++ {
		offer := offers[i]
		sb.WriteString(fmt.Sprintf("• %s\n", offer.Workplace))
		sb.WriteString(fmt.Sprintf("  %s to %s\n", offer.StartDate, offer.EndDate))
		sb.WriteString(fmt.Sprintf("  $%.2f/day $%.2f/night", offer.DayShiftRate, offer.NightShiftRate))
		if offer.ClientName != "" {
			sb.WriteString(fmt.Sprintf("  (%s)", offer.ClientName))
		}
		sb.WriteString("\n")
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(offers) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more offers", len(offers)-maxItemsToShow))
	}

	p.printBox("PUBLISHED OFFERS", sb.String())
}

// CalendarEntry is one summary/id pair for PrintCalendars.
type CalendarEntry struct {
	Summary string
	ID      string
}

// PrintCalendars outputs the accessible calendars as summary/id pairs.
func (p *Printer) PrintCalendars(calendars []CalendarEntry) {
	if len(calendars) == 0 {
		p.printBox("CALENDARS", "No calendars accessible for this account")
		return
	}

	sorted := make([]CalendarEntry, len(calendars))
	copy(sorted, calendars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Summary < sorted[j].Summary })

	var sb strings.Builder
	for i, cal := range sorted {
		sb.WriteString(fmt.Sprintf("• %s\n", cal.Summary))
		sb.WriteString(fmt.Sprintf("  %s", cal.ID))
		if i < len(sorted)-1 {
			sb.WriteString("\n\n")
		}
	}

	p.printBox("CALENDARS", sb.String())
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docwalter/shutscan/internal/calendarstore"
	"github.com/docwalter/shutscan/internal/extraction"
	"github.com/docwalter/shutscan/internal/llm"
	"github.com/docwalter/shutscan/internal/logging"
	"github.com/docwalter/shutscan/internal/mailbox"
	"github.com/docwalter/shutscan/internal/observability"
	"github.com/docwalter/shutscan/internal/pipeline"
	"github.com/docwalter/shutscan/internal/reconcile"
	"github.com/docwalter/shutscan/internal/sheetstore"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan recent mail and publish extracted job offers",
	Long:  "Scan recent Gmail messages matching the shutdown keyword filter, extract job offers with the model, deduplicate against the target calendar, and publish new offers to the calendar and tracking sheet.",
	RunE:  runScan,
}

var (
	scanConfigFile     string
	scanAPIKey         string
	scanCalendarID     string
	scanAvailabilityID string
	scanSpreadsheetID  string
	scanSheetName      string
	scanKeywords       string
	scanLookbackHours  int
	scanMaxResults     int64
	scanModel          string
	scanTimeZone       string
	scanConcurrency    int
	scanLogLevel       string
	scanDryRun         bool
	scanVerbose        bool
)

func init() {
	scanCmd.Flags().StringVarP(&scanConfigFile, "config", "c", "", "Path to JSON config file")
	scanCmd.Flags().StringVar(&scanAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	scanCmd.Flags().StringVar(&scanCalendarID, "calendar-id", "", "Target calendar ID (overrides CALENDAR_ID env var)")
	scanCmd.Flags().StringVar(&scanAvailabilityID, "availability-calendar-id", "", "Optional availability calendar ID for the busy/free hint")
	scanCmd.Flags().StringVar(&scanSpreadsheetID, "spreadsheet-id", "", "Optional spreadsheet ID for the tracking sheet")
	scanCmd.Flags().StringVar(&scanSheetName, "sheet-name", "", "Sheet tab name within the spreadsheet")
	scanCmd.Flags().StringVar(&scanKeywords, "keywords", "", "Space-separated keyword override for the mail filter")
	scanCmd.Flags().IntVar(&scanLookbackHours, "lookback-hours", 0, "How far back to search, in hours")
	scanCmd.Flags().Int64Var(&scanMaxResults, "max-results", 0, "Maximum number of messages to fetch")
	scanCmd.Flags().StringVar(&scanModel, "model", "", "Gemini model name")
	scanCmd.Flags().StringVar(&scanTimeZone, "time-zone", "", "IANA time zone for dates and the calendar")
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", 0, "Extraction worker count (1 = sequential)")
	scanCmd.Flags().StringVar(&scanLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "Report what would be published without writing anywhere")
	scanCmd.Flags().BoolVarP(&scanVerbose, "verbose", "v", false, "Print published offers after the summary")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(scanConfigFile)
	if err != nil {
		return err
	}

	// Flags win over file and env, but only when explicitly set.
	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cfg.APIKey = scanAPIKey
	}
	if flags.Changed("calendar-id") {
		cfg.CalendarID = scanCalendarID
	}
	if flags.Changed("availability-calendar-id") {
		cfg.AvailabilityCalendarID = scanAvailabilityID
	}
	if flags.Changed("spreadsheet-id") {
		cfg.SpreadsheetID = scanSpreadsheetID
	}
	if flags.Changed("sheet-name") {
		cfg.SheetName = scanSheetName
	}
	if flags.Changed("keywords") {
		cfg.Keywords = scanKeywords
	}
	if flags.Changed("lookback-hours") {
		cfg.LookbackHours = scanLookbackHours
	}
	if flags.Changed("max-results") {
		cfg.MaxResults = scanMaxResults
	}
	if flags.Changed("model") {
		cfg.Model = scanModel
	}
	if flags.Changed("time-zone") {
		cfg.TimeZone = scanTimeZone
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = scanConcurrency
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = scanLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	authOpt, err := authOption(ctx, cfg)
	if err != nil {
		return err
	}

	mail, err := mailbox.NewGmail(ctx, authOpt)
	if err != nil {
		return err
	}

	events, err := calendarstore.New(ctx, authOpt)
	if err != nil {
		return err
	}

	var sheet pipeline.SheetSink
	if cfg.SpreadsheetID != "" && !scanDryRun {
		store, err := sheetstore.New(ctx, cfg.SpreadsheetID, cfg.SheetName, authOpt)
		if err != nil {
			return err
		}
		sheet = store
	}

	client, err := llm.NewGemini(ctx, cfg.Model, cfg.APIKey)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	engine := extraction.NewEngine(client, log)
	reconciler := reconcile.New(events, reconcile.Options{
		CalendarID:     cfg.CalendarID,
		AvailabilityID: cfg.AvailabilityCalendarID,
		TimeZone:       cfg.TimeZone,
		MaxSpanDays:    cfg.MaxSpanDays,
		DryRun:         scanDryRun,
	}, log)

	runner := pipeline.NewRunner(mail, engine, reconciler, sheet, log)
	report, published, err := runner.Run(ctx, pipeline.Options{
		KeywordList:   cfg.KeywordList(),
		LookbackHours: cfg.LookbackHours,
		MaxResults:    cfg.MaxResults,
		TimeZone:      cfg.TimeZone,
		Concurrency:   cfg.Concurrency,
	})
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintRunReport(report)
	if scanVerbose {
		printer.PrintOffers(published)
	}

	return nil
}

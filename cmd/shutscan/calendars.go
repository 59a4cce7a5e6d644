package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/docwalter/shutscan/internal/calendarstore"
	"github.com/docwalter/shutscan/internal/observability"
)

var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List calendars accessible to the authenticated account",
	Long:  "List every calendar the authenticated account can see, with the ID to use for --calendar-id or CALENDAR_ID.",
	RunE:  runCalendars,
}

var calendarsConfigFile string

func init() {
	calendarsCmd.Flags().StringVarP(&calendarsConfigFile, "config", "c", "", "Path to JSON config file")

	rootCmd.AddCommand(calendarsCmd)
}

func runCalendars(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(calendarsConfigFile)
	if err != nil {
		return err
	}

	ctx := context.Background()

	authOpt, err := authOption(ctx, cfg)
	if err != nil {
		return err
	}

	store, err := calendarstore.New(ctx, authOpt)
	if err != nil {
		return err
	}

	infos, err := store.Calendars(ctx)
	if err != nil {
		return err
	}

	entries := make([]observability.CalendarEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, observability.CalendarEntry{Summary: info.Summary, ID: info.ID})
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintCalendars(entries)

	return nil
}

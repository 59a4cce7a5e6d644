package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docwalter/shutscan/internal/calendarstore"
)

var clearCalendarCmd = &cobra.Command{
	Use:   "clear-calendar",
	Short: "Delete every event from a calendar",
	Long:  "Delete every event from the target calendar. Destructive and not undoable, so it requires the --yes flag.",
	RunE:  runClearCalendar,
}

var (
	clearConfigFile string
	clearCalendarID string
	clearConfirmed  bool
)

func init() {
	clearCalendarCmd.Flags().StringVarP(&clearConfigFile, "config", "c", "", "Path to JSON config file")
	clearCalendarCmd.Flags().StringVar(&clearCalendarID, "calendar-id", "", "Calendar to clear (overrides CALENDAR_ID env var)")
	clearCalendarCmd.Flags().BoolVar(&clearConfirmed, "yes", false, "Confirm deletion of every event")

	rootCmd.AddCommand(clearCalendarCmd)
}

func runClearCalendar(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(clearConfigFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("calendar-id") {
		cfg.CalendarID = clearCalendarID
	}
	if cfg.CalendarID == "" {
		return fmt.Errorf("calendar ID is required (set CALENDAR_ID or use --calendar-id)")
	}
	if !clearConfirmed {
		return fmt.Errorf("refusing to clear calendar %s without --yes", cfg.CalendarID)
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

	deleted, failed, err := store.Clear(ctx, cfg.CalendarID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d events from %s", deleted, cfg.CalendarID)
	if failed > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d could not be deleted)", failed)
	}
	fmt.Fprintln(cmd.OutOrStdout())

	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pbaille/reflect/internal/journal"
)

func stateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the whole snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return printJSON(a.state.Snapshot())
		},
	}
}

func journalCmd() *cobra.Command {
	var q journal.Query
	var order string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List journal entries",
		Example: `  reflect journal --mode reflection
  reflect journal --q sleep --from 2025-01-01 --order oldest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			q.Order = journal.ParseOrder(order)
			printEntries(journal.Filter(a.state.Snapshot().JournalEntries, q))
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Mode, "mode", journal.ModeAll, "only entries of this mode")
	cmd.Flags().StringVarP(&q.Text, "q", "q", "", "text to look for in input, feelings and themes")
	cmd.Flags().StringVar(&q.From, "from", "", "earliest date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&q.To, "to", "", "latest date, inclusive")
	cmd.Flags().StringVar(&order, "order", "newest", "newest or oldest first")

	cmd.AddCommand(&cobra.Command{
		Use:   "show [id]",
		Short: "Show a journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			// Find entry by prefix
			e, ok := journal.FindEntry(a.state.Snapshot().JournalEntries, args[0])
			if !ok {
				return fmt.Errorf("entry not found: %s", args[0])
			}
			printEntry(e)
			return nil
		},
	})

	return cmd
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Overview of recent reflections and progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			d := journal.BuildDashboard(a.state.Snapshot())

			printHeading("Progress")
			tbl := newTable()
			tbl.AddRow("  Books loaded", d.BooksLoaded)
			tbl.AddRow("  Chapters explored", fmt.Sprintf("%d / %d", d.ChaptersExplored, d.TotalChapters))
			tbl.AddRow("  Curriculum", accent.Sprintf("%.0f%%", d.ProgressPercent))
			tbl.AddRow("  Journal entries", d.TotalEntries)
			printTable(tbl)
			fmt.Println()

			printCounts("Recurring feelings", d.RecurringFeelings)
			fmt.Println()
			printCounts("Themes in focus", d.ThemesInFocus)
			fmt.Println()

			printHeading("Recent reflections")
			printEntries(d.RecentReflections)
			return nil
		},
	}
}

func analyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Theme, mode and activity trends",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			an := journal.BuildAnalytics(a.state.Snapshot().JournalEntries)

			printCounts("Theme engagement", an.Themes)
			fmt.Println()
			printCounts("Modes", an.Modes)
			fmt.Println()

			printHeading("Timeline")
			if len(an.Timeline) == 0 {
				_, _ = faint.Println("  nothing yet")
				return nil
			}
			tbl := newTable("WHEN", "MODE", "FEELINGS", "THEMES")
			for _, p := range an.Timeline {
				tbl.AddRow(p.Timestamp.Local().Format(timeLayout), p.Mode, p.FeelingsCount, p.ThemesCount)
			}
			printTable(tbl)
			return nil
		},
	}
}

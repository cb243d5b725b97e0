package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/pbaille/reflect/internal/domain"
	"github.com/pbaille/reflect/internal/journal"
)

var (
	bold    = color.New(color.Bold)
	heading = color.New(color.Bold, color.Underline)
	faint   = color.New(color.Faint)
	accent  = color.New(color.FgHiCyan)
	marker  = color.New(color.FgHiYellow, color.Bold)
)

const timeLayout = "2006-01-02 15:04"

func newTable(headers ...interface{}) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	if len(headers) > 0 {
		cells := make([]interface{}, len(headers))
		for i, h := range headers {
			cells[i] = bold.Sprint(h)
		}
		tbl.AddRow(cells...)
	}
	return tbl
}

func printHeading(s string) {
	_, _ = fmt.Fprintln(color.Output, heading.Sprint(s))
}

func printTable(tbl *uitable.Table) {
	_, _ = fmt.Fprintln(color.Output, tbl)
}

// renderMarkdown pretty-prints model output, falling back to the raw text
func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(88),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(strings.TrimSpace(md))
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(color.Output)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntries(entries []domain.JournalEntry) {
	if len(entries) == 0 {
		fmt.Println("No journal entries match.")
		return
	}
	tbl := newTable("ID", "WHEN", "MODE", "THEMES", "INPUT")
	for _, e := range entries {
		tbl.AddRow(
			shortID(e.ID),
			e.Timestamp.Local().Format(timeLayout),
			e.Mode,
			strings.Join(e.DetectedThemes, ", "),
			truncate(e.UserInput, 50),
		)
	}
	printTable(tbl)
}

func printEntry(e domain.JournalEntry) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("ID:"), e.ID)
	tbl.AddRow(bold.Sprint("When:"), e.Timestamp.Local().Format("2006-01-02 15:04:05"))
	tbl.AddRow(bold.Sprint("Mode:"), e.Mode)
	tbl.AddRow(bold.Sprint("Chapter:"), e.LinkedBook+" / "+e.LinkedChapter)
	tbl.AddRow(bold.Sprint("Feelings:"), strings.Join(e.DetectedFeelings, ", "))
	tbl.AddRow(bold.Sprint("Themes:"), strings.Join(e.DetectedThemes, ", "))
	tbl.AddRow(bold.Sprint("Principles:"), strings.Join(e.LinkedPrinciples, ", "))
	printTable(tbl)

	fmt.Println()
	printHeading("You")
	fmt.Println(e.UserInput)
	fmt.Println()
	printHeading("Reply")
	fmt.Println(renderMarkdown(e.SystemResponse))
}

func printCounts(title string, counts []journal.Count) {
	printHeading(title)
	if len(counts) == 0 {
		_, _ = faint.Println("  nothing yet")
		return
	}
	// counts arrive sorted, largest first
	top := counts[0].Count
	tbl := newTable()
	for _, c := range counts {
		tbl.AddRow("  "+c.Label, c.Count, accent.Sprint(bar(c.Count, top, 20)))
	}
	printTable(tbl)
}

func bar(n, top, width int) string {
	if top == 0 {
		return ""
	}
	return strings.Repeat("█", n*width/top)
}

func shortID(id string) string {
	if len(id) > 11 {
		return id[:11]
	}
	return id
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

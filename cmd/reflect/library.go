package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbaille/reflect/internal/domain"
	"github.com/pbaille/reflect/internal/fetcher"
	"github.com/pbaille/reflect/internal/library"
)

func libraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library [query]",
		Short: "Browse and search the books",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			books := library.SearchBooks(a.state.Snapshot().Books, strings.Join(args, " "))
			if len(books) == 0 {
				fmt.Println("No matching books found.")
				return nil
			}

			tbl := newTable("BOOK", "TITLE", "AUTHOR", "YEAR", "CHAPTERS")
			for _, b := range books {
				tbl.AddRow(b.Metadata.ID, b.Metadata.Title, b.Metadata.Author, b.Metadata.YearPublished, len(b.Chapters))
			}
			printTable(tbl)
			return nil
		},
	}

	cmd.AddCommand(chaptersCmd())
	cmd.AddCommand(showChapterCmd())
	cmd.AddCommand(editBookCmd())
	cmd.AddCommand(bookmarkCmd())
	return cmd
}

func chaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chapters [book] [query]",
		Short: "List or search the chapters of a book",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			snap := a.state.Snapshot()
			i := snap.FindBook(args[0])
			if i < 0 {
				return fmt.Errorf("book not found: %s", args[0])
			}

			chapters := library.SearchChapters(snap.Books[i], strings.Join(args[1:], " "))
			if len(chapters) == 0 {
				fmt.Println("No matching chapters found.")
				return nil
			}

			tbl := newTable("", "CHAPTER", "#", "TITLE", "SUMMARY")
			for _, ch := range chapters {
				flag := " "
				if ch.ID == snap.ActiveChapterID {
					flag = accent.Sprint("▸")
				}
				if ch.IsBookmarked {
					flag += marker.Sprint("★")
				}
				tbl.AddRow(flag, ch.ID, ch.Number, ch.Title, truncate(ch.Summary.ShortSummary, 60))
			}
			printTable(tbl)
			return nil
		},
	}
}

func showChapterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [book] [chapter]",
		Short: "Read a chapter with its principles, notes and highlights",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			book, ch, ok := library.Lookup(a.state.Snapshot(), args[0], args[1])
			if !ok {
				return fmt.Errorf("chapter not found: %s/%s", args[0], args[1])
			}
			fmt.Println(renderMarkdown(chapterMarkdown(book, ch)))
			return nil
		},
	}
}

func chapterMarkdown(book domain.Book, ch domain.Chapter) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %d. %s\n\n", ch.Number, ch.Title)
	fmt.Fprintf(&b, "*%s*\n\n", book.Metadata.Title)
	if ch.Summary.KeyMessage != "" {
		fmt.Fprintf(&b, "> %s\n\n", ch.Summary.KeyMessage)
	}

	if len(ch.Content) == 0 {
		fmt.Fprintf(&b, "%s\n\n", ch.FullText)
	}
	for _, sec := range ch.Content {
		fmt.Fprintf(&b, "## %s\n\n", sec.Section)
		if sec.Text != "" {
			fmt.Fprintf(&b, "%s\n\n", sec.Text)
		}
		for _, p := range sec.Parts {
			switch p.Type {
			case domain.PartQuote, domain.PartHighlightedQuote:
				fmt.Fprintf(&b, "> %s\n", p.Content)
				if p.Source != "" {
					fmt.Fprintf(&b, ">\n> — %s\n", p.Source)
				}
				b.WriteString("\n")
			case domain.PartInsight, domain.PartHighlight:
				fmt.Fprintf(&b, "**%s**\n\n", p.Content)
			case domain.PartInstruction:
				fmt.Fprintf(&b, "- %s\n\n", p.Content)
			default:
				fmt.Fprintf(&b, "%s\n\n", p.Content)
			}
		}
		if sec.Takeaway != "" {
			fmt.Fprintf(&b, "*Takeaway: %s*\n\n", sec.Takeaway)
		}
	}

	if len(ch.Principles) > 0 {
		b.WriteString("## Principles\n\n")
		for _, p := range ch.Principles {
			fmt.Fprintf(&b, "- **%s**: %s\n", p.Title, p.Statement)
		}
		b.WriteString("\n")
	}
	if len(ch.Themes) > 0 {
		b.WriteString("## Themes\n\n")
		for _, t := range ch.Themes {
			fmt.Fprintf(&b, "- **%s**: %s\n", t, library.Explain(t))
		}
		b.WriteString("\n")
	}
	if len(ch.Highlights) > 0 {
		b.WriteString("## Your highlights\n\n")
		for _, h := range ch.Highlights {
			fmt.Fprintf(&b, "- %s `%s`\n", h.Text, shortID(h.ID))
		}
		b.WriteString("\n")
	}
	if len(ch.Notes) > 0 {
		b.WriteString("## Your notes\n\n")
		for _, n := range ch.Notes {
			fmt.Fprintf(&b, "- %s (%s) `%s`\n", n.Text, n.Timestamp.Local().Format(library.NoteDateLayout), shortID(n.ID))
		}
	}
	return b.String()
}

func editBookCmd() *cobra.Command {
	var patch domain.BookMetadataPatch
	var title, author, kind, source, language string
	var year int

	cmd := &cobra.Command{
		Use:   "edit [book]",
		Short: "Edit book metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("title") {
				patch.Title = &title
			}
			if f.Changed("author") {
				patch.Author = &author
			}
			if f.Changed("year") {
				patch.YearPublished = &year
			}
			if f.Changed("type") {
				patch.Type = &kind
			}
			if f.Changed("source") {
				patch.Source = &source
			}
			if f.Changed("language") {
				patch.Language = &language
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			meta, err := a.state.UpdateBookMetadata(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %s: %s by %s (%d)\n", meta.ID, meta.Title, meta.Author, meta.YearPublished)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "book title")
	cmd.Flags().StringVar(&author, "author", "", "author")
	cmd.Flags().IntVar(&year, "year", 0, "year published")
	cmd.Flags().StringVar(&kind, "type", "", "kind of work")
	cmd.Flags().StringVar(&source, "source", "", "where the text comes from")
	cmd.Flags().StringVar(&language, "language", "", "language code")
	return cmd
}

func bookmarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bookmark [book] [chapter]",
		Short: "Toggle the bookmark on a chapter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			marked, err := a.state.ToggleBookmark(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if marked {
				fmt.Printf("Bookmarked %s\n", args[1])
			} else {
				fmt.Printf("Removed bookmark from %s\n", args[1])
			}
			return nil
		},
	}
}

func noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Add or remove chapter notes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add [book] [chapter] [text]",
		Short: "Add a note to a chapter",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			note, err := a.state.AddNote(cmd.Context(), args[0], args[1], strings.Join(args[2:], " "))
			if err != nil {
				return err
			}
			fmt.Printf("Added note: %s\n", shortID(note.ID))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [book] [chapter] [note-id]",
		Short: "Remove a note",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			_, ch, ok := library.Lookup(a.state.Snapshot(), args[0], args[1])
			if !ok {
				return fmt.Errorf("chapter not found: %s/%s", args[0], args[1])
			}
			id := args[2]
			for _, n := range ch.Notes {
				if strings.HasPrefix(n.ID, id) {
					id = n.ID
					break
				}
			}
			if err := a.state.DeleteNote(cmd.Context(), args[0], args[1], id); err != nil {
				return err
			}
			fmt.Println("Note removed")
			return nil
		},
	})

	return cmd
}

func highlightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "highlight",
		Short: "Add or remove chapter highlights",
	}

	var color string
	add := &cobra.Command{
		Use:   "add [book] [chapter] [text]",
		Short: "Highlight a passage of a chapter",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			hl, err := a.state.AddHighlight(cmd.Context(), args[0], args[1], strings.Join(args[2:], " "), color)
			if err != nil {
				return err
			}
			fmt.Printf("Added %s highlight: %s\n", hl.Color, shortID(hl.ID))
			return nil
		},
	}
	add.Flags().StringVar(&color, "color", domain.DefaultHighlightColor, "highlight color")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [book] [chapter] [highlight-id]",
		Short: "Remove a highlight",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			_, ch, ok := library.Lookup(a.state.Snapshot(), args[0], args[1])
			if !ok {
				return fmt.Errorf("chapter not found: %s/%s", args[0], args[1])
			}
			id := args[2]
			for _, h := range ch.Highlights {
				if strings.HasPrefix(h.ID, id) {
					id = h.ID
					break
				}
			}
			if err := a.state.DeleteHighlight(cmd.Context(), args[0], args[1], id); err != nil {
				return err
			}
			fmt.Println("Highlight removed")
			return nil
		},
	})

	return cmd
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export [book] [chapter]",
		Short: "Write a chapter's study set to a text file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			book, ch, ok := library.Lookup(a.state.Snapshot(), args[0], args[1])
			if !ok {
				return fmt.Errorf("chapter not found: %s/%s", args[0], args[1])
			}

			text := library.StudySet(book, ch)
			if out == "-" {
				fmt.Print(text)
				return nil
			}
			if out == "" {
				out = library.ExportFilename(ch)
			}
			if err := os.WriteFile(out, []byte(text), 0644); err != nil {
				return fmt.Errorf("write study set: %w", err)
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file, - for stdout (default <Chapter_Title>_Study_Set.txt)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [book] [file-or-url]",
		Short: "Import a chapter from an HTML page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			page, err := fetcher.Load(ctx, args[1])
			if err != nil {
				return err
			}
			ch, err := fetcher.ParseChapter(bytes.NewReader(page))
			if err != nil {
				return err
			}
			ch, err = a.state.ImportChapter(ctx, args[0], ch)
			if err != nil {
				return err
			}

			parts := 0
			for _, sec := range ch.Content {
				parts += len(sec.Parts)
			}
			fmt.Printf("Imported %s: %s (%d sections, %d parts)\n", ch.ID, ch.Title, len(ch.Content), parts)
			return nil
		},
	}
}

func themesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "Explain the recurring themes of the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl := newTable("THEME", "MEANING")
			for _, t := range library.Glossary() {
				tbl.AddRow(t.Theme, t.Explanation)
			}
			printTable(tbl)
			return nil
		},
	}
}

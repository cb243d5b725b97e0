package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbaille/reflect/internal/chat"
	"github.com/pbaille/reflect/internal/domain"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk with your study companion",
		Long: `Send one message, or start an interactive session when no message is given.

In a session, /mode <name> and /chapter <id> change the framing and /exit leaves.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.chatService(ctx)
			if err != nil {
				return err
			}

			if len(args) > 0 {
				return sendTurn(ctx, svc, strings.Join(args, " "))
			}

			snap := a.state.Snapshot()
			_, _ = faint.Printf("mode %s, chapter %s. /exit to leave.\n", snap.CurrentMode, snap.ActiveChapterID)

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print(bold.Sprint("> "))
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "/exit" || line == "/quit":
					return nil
				case strings.HasPrefix(line, "/mode "):
					if err := setMode(ctx, a, strings.TrimPrefix(line, "/mode ")); err != nil {
						fmt.Println(err)
					}
				case strings.HasPrefix(line, "/chapter "):
					if err := setChapter(ctx, a, strings.TrimPrefix(line, "/chapter ")); err != nil {
						fmt.Println(err)
					}
				default:
					if err := sendTurn(ctx, svc, line); err != nil {
						fmt.Println(err)
					}
				}
			}
		},
	}
}

func sendTurn(ctx context.Context, svc *chat.Service, text string) error {
	_, _ = faint.Println("thinking...")
	turn, err := svc.Send(ctx, text)
	if turn.Assistant.Content != "" {
		fmt.Println(renderMarkdown(turn.Assistant.Content))
	}
	if turn.Entry != nil {
		_, _ = marker.Printf("✎ saved to journal as %s", shortID(turn.Entry.ID))
		if len(turn.Entry.DetectedThemes) > 0 {
			_, _ = faint.Printf(" (%s)", strings.Join(turn.Entry.DetectedThemes, ", "))
		}
		fmt.Println()
	}
	return err
}

func transcriptCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Show the conversation so far",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			msgs := a.state.Snapshot().ActiveChat
			if len(msgs) == 0 {
				fmt.Println("No messages yet. Use 'reflect chat' to start.")
				return nil
			}
			if limit > 0 && len(msgs) > limit {
				msgs = msgs[len(msgs)-limit:]
			}

			for _, m := range msgs {
				who := accent.Sprint("you")
				if m.Role == domain.RoleAssistant {
					who = marker.Sprint("reflect")
				}
				fmt.Printf("%s %s\n", who, faint.Sprintf("%s · %s", m.Timestamp.Local().Format(timeLayout), m.Mode))
				if m.Role == domain.RoleAssistant {
					fmt.Println(renderMarkdown(m.Content))
				} else {
					fmt.Println(m.Content)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "only show the last n messages")
	return cmd
}

func modeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "mode [free|study|application|reflection]",
		Short:     "Show or change the conversation mode",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"free", "study", "application", "reflection"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 0 {
				fmt.Println(a.state.Snapshot().CurrentMode)
				return nil
			}
			return setMode(cmd.Context(), a, args[0])
		},
	}
}

func setMode(ctx context.Context, a *app, name string) error {
	mode, err := domain.ParseMode(name)
	if err != nil {
		return err
	}
	if err := a.state.SetMode(ctx, mode); err != nil {
		return err
	}
	fmt.Printf("Mode: %s\n", mode)
	return nil
}

func chapterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chapter [chapter-id]",
		Short: "Show or change the chapter the conversation is anchored to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 0 {
				fmt.Println(a.state.Snapshot().ActiveChapterID)
				return nil
			}
			return setChapter(cmd.Context(), a, args[0])
		},
	}
}

func setChapter(ctx context.Context, a *app, id string) error {
	id = strings.TrimSpace(id)
	if err := a.state.SetActiveChapter(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Active chapter: %s\n", id)
	return nil
}

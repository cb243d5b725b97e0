package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pbaille/reflect/internal/chat"
	"github.com/pbaille/reflect/internal/config"
	"github.com/pbaille/reflect/internal/gateway"
	"github.com/pbaille/reflect/internal/observability"
	"github.com/pbaille/reflect/internal/state"
	"github.com/pbaille/reflect/internal/store"
)

var (
	v       = config.New()
	cfg     *config.Config
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "reflect",
		Short:         "Study companion and reflection journal",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(v)
			if err != nil {
				return err
			}

			// keep the terminal quiet unless asked; the server logs normally
			level := cfg.Log.Level
			if cmd.Name() != "serve" && !verbose {
				level = "warn"
			}
			observability.Setup(os.Stderr, level, cfg.Log.Format)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "snapshot database path (default ~/.reflect/reflect.db)")
	flags.String("storage", "", "storage backend: sqlite, diskv, firestore or memory")
	flags.String("provider", "", "model provider: gemini, anthropic or mock")
	flags.String("model", "", "model name override")
	flags.String("log-format", "", "log format: json or text")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log at the configured level")
	for key, name := range map[string]string{
		"storage.path":    "db",
		"storage.backend": "storage",
		"llm.provider":    "provider",
		"llm.model":       "model",
		"log.format":      "log-format",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(transcriptCmd())
	rootCmd.AddCommand(modeCmd())
	rootCmd.AddCommand(chapterCmd())
	rootCmd.AddCommand(journalCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(analyticsCmd())
	rootCmd.AddCommand(libraryCmd())
	rootCmd.AddCommand(noteCmd())
	rootCmd.AddCommand(highlightCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(themesCmd())
	rootCmd.AddCommand(serveCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app is the opened snapshot store shared by every command
type app struct {
	backend store.Backend
	state   *state.Store
}

func openApp(ctx context.Context) (*app, error) {
	backend, err := store.Open(ctx, store.Options{
		Backend:             cfg.Storage.Backend,
		Path:                cfg.Storage.Path,
		FirestoreProject:    cfg.Firestore.Project,
		FirestoreCollection: cfg.Firestore.Collection,
	})
	if err != nil {
		return nil, err
	}

	st, err := state.Open(ctx, backend, cfg.Storage.Key)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return &app{backend: backend, state: st}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}

// chatService builds the gateway only for the commands that talk to a model
func (a *app) chatService(ctx context.Context) (*chat.Service, error) {
	model, err := gateway.NewModel(ctx, gateway.ModelConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
	})
	if err != nil {
		return nil, err
	}
	gw := gateway.New(model, gateway.WithTimeout(cfg.LLM.Timeout))
	return chat.NewService(a.state, gw), nil
}

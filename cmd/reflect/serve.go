package main

import (
	"github.com/spf13/cobra"

	"github.com/pbaille/reflect/internal/api"
	"github.com/pbaille/reflect/internal/observability"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
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

			if addr == "" {
				addr = cfg.Server.Addr
			}
			observability.Logger().Info("serving",
				"storage", cfg.Storage.Backend,
				"provider", cfg.LLM.Provider,
			)
			return api.New(a.state, svc, addr).Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (default :8080)")
	return cmd
}

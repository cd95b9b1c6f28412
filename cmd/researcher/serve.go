package main

import (
	"log"

	"github.com/mohammad-safakhou/researcher/internal/report"
	srv "github.com/mohammad-safakhou/researcher/internal/server"
	"github.com/spf13/cobra"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := bootstrapRuntime(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer rt.Shutdown()
			defer rt.telemetry.Shutdown()
			defer startTracing(ctx, rt.cfg.Telemetry)()

			orch, err := rt.orchestrator()
			if err != nil {
				return err
			}
			return srv.Run(ctx, addr, srv.Deps{
				Config:     rt.cfg,
				Researcher: orch,
				Sessions:   rt.episodic,
				Memory:     rt.semantic,
				Reports:    report.NewStore(rt.cfg.Storage.ReportsDir),
				Metrics:    rt.telemetry,
				Logger:     log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.address)")
	return cmd
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func researchCMD(cfgPath *string) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "research [query]",
		Short: "Run a research session and print the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("query is required")
			}
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
			res, err := orch.Research(ctx, query)
			if err != nil {
				return fmt.Errorf("research failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if !quiet {
				fmt.Fprintln(out, res.Report)
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "session: %s\n", res.SessionID)
			fmt.Fprintf(out, "sources analysed: %d (%s)\n", res.Summary.SourceCount, res.Summary.SynthesisMethod)
			fmt.Fprintf(out, "report saved to: %s\n", res.ReportPath)
			fmt.Fprintf(out, "duration: %s\n", res.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the report body")
	return cmd
}

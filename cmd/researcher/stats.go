package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/mohammad-safakhou/researcher/internal/memory/episodic"
	"github.com/mohammad-safakhou/researcher/internal/memory/semantic"
	"github.com/spf13/cobra"
)

func statsCMD(cfgPath *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge graph and vector memory statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := bootstrapRuntime(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer rt.Shutdown()

			kg := rt.episodic.AgentStats()
			vec := rt.semantic.Stats(ctx)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{"knowledge_graph": kg, "vector_memory": vec})
			}
			printStats(out, kg, vec)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print statistics as JSON")
	return cmd
}

func printStats(w io.Writer, kg episodic.Stats, vec semantic.Stats) {
	fmt.Fprintln(w, "Knowledge Graph")
	fmt.Fprintf(w, "  sessions: %d\n", kg.TotalSessions)
	fmt.Fprintf(w, "  actions:  %d\n", kg.TotalActions)
	fmt.Fprintf(w, "  agents:   %d\n", kg.TotalAgents)
	names := make([]string, 0, len(kg.Agents))
	for name := range kg.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a := kg.Agents[name]
		fmt.Fprintf(w, "    %-16s %5d actions, last seen %s\n", name, a.ActionCount, a.LastSeen.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(w, "Vector Memory")
	fmt.Fprintf(w, "  vectors:   %d\n", vec.TotalVectors)
	fmt.Fprintf(w, "  dimension: %d\n", vec.EmbeddingDimension)
	fmt.Fprintf(w, "  size:      %.2f KB\n", vec.StorageSizeKB)
}

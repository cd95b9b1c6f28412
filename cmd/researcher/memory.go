package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mohammad-safakhou/researcher/internal/memory/semantic"
	"github.com/spf13/cobra"
)

func memoryCMD(cfgPath *string) *cobra.Command {
	root := &cobra.Command{
		Use:   "memory",
		Short: "Query and evaluate semantic memory",
	}

	var topK int
	var mode string
	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Search remembered queries and findings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrapRuntime(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer rt.Shutdown()
			if topK <= 0 {
				topK = rt.cfg.Memory.SearchTopK
			}
			records, err := rt.semantic.Find(strings.Join(args, " "), topK, mode)
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
	search.Flags().IntVarP(&topK, "top-k", "k", 0, "number of results (default memory.search_top_k)")
	search.Flags().StringVar(&mode, "mode", semantic.ModeVector, "vector, keyword or hybrid")

	var inputPath string
	var evalK int
	var evalMode string
	eval := &cobra.Command{
		Use:   "eval",
		Short: "Measure recall against a JSON list of {query, relevant} expectations",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(inputPath)
			if err != nil {
				return fmt.Errorf("read expectations: %w", err)
			}
			var expectations []semantic.QueryExpectation
			if err := json.Unmarshal(data, &expectations); err != nil {
				return fmt.Errorf("decode expectations: %w", err)
			}
			rt, err := bootstrapRuntime(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer rt.Shutdown()
			summary, err := semantic.Evaluate(rt.semantic, evalMode, evalK, expectations)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	eval.Flags().StringVarP(&inputPath, "input", "i", "", "expectations file (default stdin)")
	eval.Flags().IntVarP(&evalK, "top-k", "k", 5, "recall cutoff")
	eval.Flags().StringVar(&evalMode, "mode", semantic.ModeVector, "vector, keyword or hybrid")

	root.AddCommand(search, eval)
	return root
}

func printRecords(w io.Writer, records []semantic.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no matches")
		return
	}
	for i, r := range records {
		text, _ := r["text"].(string)
		kind, _ := r["type"].(string)
		score := r["similarity_score"]
		if score == nil {
			score = r["keyword_score"]
		}
		fmt.Fprintf(w, "%2d. [%s] %v  %s\n", i+1, kind, score, text)
	}
}

func readInput(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

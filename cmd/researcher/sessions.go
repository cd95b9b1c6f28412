package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mohammad-safakhou/researcher/internal/memory/episodic"
	"github.com/spf13/cobra"
)

func sessionsCMD(cfgPath *string) *cobra.Command {
	root := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Inspect recorded research sessions",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrapRuntime(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer rt.Shutdown()
			printSessions(cmd.OutOrStdout(), rt.episodic.Sessions(), limit)
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum sessions to show (0 = all)")

	show := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Print a session and its action log as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrapRuntime(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer rt.Shutdown()
			sess, ok := rt.episodic.SessionHistory(args[0])
			if !ok {
				return fmt.Errorf("session %q not found", args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sess)
		},
	}

	root.AddCommand(list, show)
	return root
}

func printSessions(w io.Writer, sessions []episodic.Session, limit int) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "no sessions recorded")
		return
	}
	shown := 0
	for i := len(sessions) - 1; i >= 0; i-- {
		if limit > 0 && shown == limit {
			break
		}
		s := sessions[i]
		fmt.Fprintf(w, "%s  %-9s  %s  %3d actions  %s\n", s.ID, s.Status, s.Started.Format("2006-01-02 15:04:05"), len(s.Actions), s.Query)
		shown++
	}
}

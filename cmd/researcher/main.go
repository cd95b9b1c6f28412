package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "researcher",
		Short:         "Autonomous research pipeline with episodic and semantic memory",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.yaml or ./config.yaml)")

	root.AddCommand(
		researchCMD(&cfgPath),
		statsCMD(&cfgPath),
		sessionsCMD(&cfgPath),
		memoryCMD(&cfgPath),
		serveCMD(&cfgPath),
		configCMD(&cfgPath),
	)
	return root
}

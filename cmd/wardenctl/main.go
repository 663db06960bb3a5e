// wardenctl loads, inspects and executes sandboxed policy modules.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "wardenctl",
	Short: "Manage and execute sandboxed policy modules",
	Long: `wardenctl pulls policy modules into a local store, inspects and annotates
their metadata, and executes them in a wasm sandbox against admission
requests. Host capability calls made by a policy can be recorded to a
session file and replayed later for deterministic, offline evaluation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(runCmd, benchCmd, pullCmd, policiesCmd, rmCmd, inspectCmd,
		annotateCmd, scaffoldCmd, digestCmd, verifyCmd, saveCmd, loadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

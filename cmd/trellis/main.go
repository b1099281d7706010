package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jward/trellis"
	"github.com/spf13/cobra"
)

var (
	flagForce   bool
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "trellis",
	Short:         "Incremental import/export relationship index for JS/TS trees",
	Long:          "Trellis parses a git-tracked JavaScript/TypeScript tree with tree-sitter, resolves every import to a repository path or package identity, and writes a dependency snapshot plus digest under .trellis/.",
	SilenceErrors: true,
	SilenceUsage:  true,
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagForce, "force", false, "ignore prior snapshots and recompute everything")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(describeCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Build or refresh the relationship index",
	Long:  "Discovers the git-tracked file set, extracts import/export facts per file (reusing unchanged records), resolves imports, rebuilds the dependency graph, and replaces .trellis/index.json and .trellis/index.md atomically.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

var describeCmd = &cobra.Command{
	Use:   "describe [path]",
	Short: "Generate per-file descriptions from the index",
	Long:  "Reads .trellis/index.json and synthesizes a short templated description per file, carrying unchanged descriptions forward, then replaces .trellis/descriptions.json and .trellis/descriptions.md atomically.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDescribe,
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	engine, err := newEngine(args)
	if err != nil {
		return err
	}

	snap, err := engine.Index(context.Background())
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %d files (%d tracked) in %s\n",
		len(snap.Files), snap.TrackedCount, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Snapshot: %s/.trellis/index.json\n", engine.Root())
	return nil
}

func runDescribe(cmd *cobra.Command, args []string) error {
	start := time.Now()
	engine, err := newEngine(args)
	if err != nil {
		return err
	}

	set, err := engine.Describe(context.Background())
	if err != nil {
		return fmt.Errorf("describing: %w", err)
	}

	fresh := 0
	for _, rec := range set.Files {
		if rec.CarriedFrom == nil {
			fresh++
		}
	}
	fmt.Fprintf(os.Stderr, "Described %d files (%d regenerated) in %s\n",
		len(set.Files), fresh, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Descriptions: %s/.trellis/descriptions.json\n", engine.Root())
	return nil
}

func newEngine(args []string) (*trellis.Engine, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	engine, err := trellis.New(root, trellis.WithLogger(log), trellis.WithForce(flagForce))
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}

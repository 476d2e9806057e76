package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	internal "github.com/mtreilly/dirsnap/dirsnap"
	"github.com/mtreilly/dirsnap/dirsnap/config"
	"github.com/mtreilly/dirsnap/dirsnap/diff"
	"github.com/mtreilly/dirsnap/dirsnap/snapshot"

	"github.com/spf13/cobra"
)

var (
	cfgFile string

	// snapshot flags
	description string

	// shared flags
	ignorePatterns []string
	noWalk         bool

	// diff flags
	jsonOutput       bool
	includeIdentical bool
)

var rootCmd = &cobra.Command{
	Use:   "dirsnap",
	Short: "Snapshot a directory's metadata and report differences against it later",
	Long: `dirsnap captures a point-in-time inventory of a directory tree's file
metadata into an embedded database, and compares two such snapshots (or a
snapshot against the live directory) to report additions, removals and
modifications. Comparison is metadata-only: type, permissions, ownership,
size and modification time.`,
	Version:       internal.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.LoadConfig(cfgFile)
		return err
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot DIRECTORY [SNAPSHOT_FILE]",
	Short: "Create a snapshot of DIRECTORY at SNAPSHOT_FILE",
	Long: `Create a snapshot of DIRECTORY at SNAPSHOT_FILE. When SNAPSHOT_FILE is
omitted the snapshot lands in the configured snapshot directory under a
timestamped name.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSnapshot,
}

var diffCmd = &cobra.Command{
	Use:   "diff SNAPSHOT_A DIRECTORY_OR_SNAPSHOT_B",
	Short: "Diff SNAPSHOT_A against a directory or a second snapshot",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringArrayVarP(&ignorePatterns, "ignore", "i", nil, "ignore files matching REGEX (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&noWalk, "no-walk", false, "don't recurse into subdirectories")

	snapshotCmd.Flags().StringVarP(&description, "description", "d", "", "optional description stored with the snapshot")

	diffCmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "output as JSON")
	diffCmd.Flags().BoolVarP(&includeIdentical, "identical", "I", false, "include identical files in the report (always included with --json)")

	rootCmd.AddCommand(snapshotCmd, diffCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	logger := internal.GetLogger()
	dirPath := args[0]

	var dbPath string
	if len(args) == 2 {
		dbPath = args[1]
	} else {
		snapshotDir := config.AppConfig.Dirsnap.SnapshotDir
		if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
			return fmt.Errorf("could not create snapshot directory: %w", err)
		}
		name := fmt.Sprintf("%s-%s.snapshot", filepath.Base(filepath.Clean(dirPath)), time.Now().Format("20060102_150405"))
		dbPath = filepath.Join(snapshotDir, name)
	}

	filter, err := buildFilter(dirPath)
	if err != nil {
		return err
	}

	opts := []snapshot.Option{snapshot.WithWalk(walkEnabled())}
	if description != "" {
		opts = append(opts, snapshot.WithDescription(description))
	}
	if filter != nil {
		opts = append(opts, snapshot.WithFilter(filter))
	}

	store, err := snapshot.CreateSnapshot(dirPath, dbPath, opts...)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info().Str("directory", dirPath).Str("snapshot", dbPath).Msg("snapshot created")
	fmt.Printf("Snapshot of '%s' created at '%s'\n", dirPath, dbPath)
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	a, err := diff.ResolveBaseline(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := diff.Resolve(args[1], walkEnabled())
	if err != nil {
		return err
	}
	defer b.Close()

	var diffOpts []diff.Option
	if len(ignorePatterns) > 0 {
		filter, err := snapshot.FilterFromPatterns(ignorePatterns)
		if err != nil {
			return err
		}
		diffOpts = append(diffOpts, diff.WithFilter(filter))
	}

	differ := diff.New(a, b, diffOpts...)

	if jsonOutput {
		delta, err := differ.Diff()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(delta, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	return differ.Report(os.Stdout, includeIdentical || config.AppConfig.Dirsnap.IncludeIdentical)
}

// buildFilter combines --ignore regex patterns with the per-directory ignore
// file, if one exists.
func buildFilter(dirPath string) (snapshot.Filter, error) {
	var filters []snapshot.Filter

	if len(ignorePatterns) > 0 {
		filter, err := snapshot.FilterFromPatterns(ignorePatterns)
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter)
	}

	ignoreFile := filepath.Join(dirPath, config.AppConfig.Dirsnap.IgnoreFile)
	fileFilter, err := snapshot.FilterFromIgnoreFile(ignoreFile)
	if err != nil {
		return nil, err
	}
	if fileFilter != nil {
		filters = append(filters, fileFilter)
	}

	switch len(filters) {
	case 0:
		return nil, nil
	case 1:
		return filters[0], nil
	default:
		return func(path string) bool {
			for _, f := range filters {
				if !f(path) {
					return false
				}
			}
			return true
		}, nil
	}
}

func walkEnabled() bool {
	return config.AppConfig.Dirsnap.Walk && !noWalk
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := internal.GetLogger()
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

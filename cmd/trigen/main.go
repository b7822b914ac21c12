// trigen — generational reference-tracking collector, exposed as a C ABI
// (cmd/libtrigen) and driven standalone for diagnostics, benchmarking, and
// MCP-tool access from this binary.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkrasnov/trigen/internal/bench"
	"github.com/dkrasnov/trigen/internal/core"
	"github.com/dkrasnov/trigen/internal/mcpabi"
	"github.com/dkrasnov/trigen/internal/refprobe"
	"github.com/dkrasnov/trigen/internal/statsdiff"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "trigen",
		Short: "Three-generation tracing collector CLI",
		Long: `trigen — a CPython-gc-style generational collector with a stable C ABI.

The collector itself is embedded as a shared library (cmd/libtrigen); this
binary drives a fresh in-process Core for demonstration, load testing, and
MCP tool access. State is never persisted across invocations: each
subcommand builds, exercises, and tears down its own Core.`,
		Version: version,
	}

	// --- bench command ---
	var (
		benchWorkers      int
		benchDuration     string
		benchLiveSet      int
		benchCollectEvery int
		benchOutput       string
	)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Load-generate track/untrack/collect traffic and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseDuration(benchDuration)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			c := core.New(core.DefaultConfig())
			defer c.Cleanup()

			report, err := bench.Run(c, bench.Config{
				Workers:      benchWorkers,
				Duration:     d,
				LiveSet:      benchLiveSet,
				CollectEvery: benchCollectEvery,
			})
			if err != nil {
				return err
			}
			return writeOutput(report, bench.Format(report), benchOutput)
		},
	}
	benchCmd.Flags().IntVarP(&benchWorkers, "workers", "w", 4, "Concurrent goroutines")
	benchCmd.Flags().StringVarP(&benchDuration, "duration", "d", "1s", "Duration per worker (e.g. 500ms, 2s)")
	benchCmd.Flags().IntVar(&benchLiveSet, "live-set", 64, "Addresses each worker keeps tracked at once")
	benchCmd.Flags().IntVar(&benchCollectEvery, "collect-every", 32, "Call collect_if_needed every N track/untrack pairs (0 disables)")
	benchCmd.Flags().StringVarP(&benchOutput, "output", "o", "-", "Output file path (- for stdout text, .json for JSON)")

	// --- capabilities command ---
	capabilitiesCmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Show kernel capabilities for live reference-edge probing",
		RunE: func(cmd *cobra.Command, args []string) error {
			caps := refprobe.Detect()
			fmt.Print(refprobe.Format(caps))
			return nil
		},
	}

	// --- diff command ---
	var diffOutput string

	diffCmd := &cobra.Command{
		Use:   "diff <baseline.json> <current.json>",
		Short: "Compare two debug_state snapshots",
		Long:  "Produce a diff report showing which stats regressed or improved between two `trigen stats --debug --json` captures.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1], diffOutput)
		},
	}
	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", "-", "Output diff file path")

	// --- stats command ---
	var (
		statsTrack  []int
		statsDebug  bool
		statsJSON   bool
		statsOutput string
	)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Track a synthetic set of addresses and print resulting stats",
		Long:  "Primarily a smoke-test / demo command: tracks the given synthetic addresses, then reports stats or a full debug snapshot.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := core.New(core.DefaultConfig())
			defer c.Cleanup()

			for _, n := range statsTrack {
				if err := c.Track(uintptr(n)); err != nil {
					return fmt.Errorf("track %#x: %w", n, err)
				}
			}

			if statsDebug {
				ds, err := c.DebugState()
				if err != nil {
					return err
				}
				if statsJSON {
					return writeOutput(ds, "", statsOutput)
				}
				text := fmt.Sprintf("total_tracked=%d gen0=%d gen1=%d gen2=%d uncollectable=%d enabled=%v debug_flags=%#x\n",
					ds.Stats.TotalTracked, ds.Stats.GenerationCounts[0], ds.Stats.GenerationCounts[1], ds.Stats.GenerationCounts[2],
					ds.Stats.Uncollectable, ds.Enabled, ds.DebugFlags)
				return writeOutput(ds, text, statsOutput)
			}

			s, err := c.GetStats()
			if err != nil {
				return err
			}
			if statsJSON {
				return writeOutput(s, "", statsOutput)
			}
			text := fmt.Sprintf("total_tracked=%d gen0=%d gen1=%d gen2=%d uncollectable=%d\n",
				s.TotalTracked, s.GenerationCounts[0], s.GenerationCounts[1], s.GenerationCounts[2], s.Uncollectable)
			return writeOutput(s, text, statsOutput)
		},
	}
	statsCmd.Flags().IntSliceVar(&statsTrack, "track", nil, "Synthetic addresses to track before reporting (comma-separated)")
	statsCmd.Flags().BoolVar(&statsDebug, "debug", false, "Print the full debug_state snapshot instead of get_stats")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Force JSON output even to stdout")
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "-", "Output file path (- for stdout)")

	// --- serve command ---
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := core.New(core.DefaultConfig())
			defer c.Cleanup()
			srv := mcpabi.NewServer(version, c)
			return srv.Start(context.Background())
		},
	}

	rootCmd.AddCommand(benchCmd, capabilitiesCmd, diffCmd, statsCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// writeOutput writes v as JSON to path, or text to stdout when path is "-"
// and text is non-empty.
func writeOutput(v interface{}, text, path string) error {
	if path == "-" {
		if text != "" {
			fmt.Print(text)
			return nil
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// runDiff handles the `diff` command.
func runDiff(baselinePath, currentPath, outputPath string) error {
	baseline, err := statsdiff.LoadState(baselinePath)
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}
	current, err := statsdiff.LoadState(currentPath)
	if err != nil {
		return fmt.Errorf("load current: %w", err)
	}

	result := statsdiff.Compare(baseline, current)

	if outputPath == "-" {
		fmt.Print(statsdiff.FormatDiff(result))
		return nil
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0644)
}

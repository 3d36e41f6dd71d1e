// Package main provides the CLI entry point for the semantic anomaly
// detection pipeline.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MRIIOT/llm-cmp-sub005/internal/infrastructure/trace"
	"github.com/MRIIOT/llm-cmp-sub005/pkg/anomaly"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "llm-cmp",
	Short: "Semantic anomaly detection over sparse binary patterns",
	Long: `llm-cmp scores a stream of inputs for semantic anomalies.

Each input is encoded into a sparse binary pattern, checked against an
upstream sequence predictor, and routed through evolving pattern clusters
("domains") to distinguish drift within a known cluster, switches between
known clusters, and genuine novelty.`,
	Version: version,
}

// ============================================================================
// Stream Command
// ============================================================================

var (
	streamConfig string
	streamTrace  string
	streamStats  bool
)

var streamCmd = &cobra.Command{
	Use:   "stream [file]",
	Short: "Score a stream of inputs",
	Long: `Score inputs line by line from a file, or from stdin when no file
is given. Each line prints its anomaly score; --stats prints an engine
summary at the end.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := anomaly.LoadConfig(streamConfig)
		if err != nil {
			return err
		}
		if streamTrace != "" {
			cfg.TracePath = streamTrace
		}

		detector := anomaly.NewDetector(cfg)

		var recorder *trace.Recorder
		if cfg.TracePath != "" {
			recorder, err = trace.Open(cfg.TracePath)
			if err != nil {
				return err
			}
			defer recorder.Close()
		}

		input := os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			defer f.Close()
			input = f
		}

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			result := detector.Observe(line)
			fmt.Printf("%.4f  %s\n", result.Score, line)

			if recorder != nil {
				stats := detector.Stats()
				if err := recorder.Record(trace.Entry{
					Input:              line,
					Score:              result.Score,
					Accuracy:           result.Accuracy,
					SemanticSimilarity: result.SemanticSimilarity,
					DomainCount:        stats.DomainCount,
					TransitionCount:    stats.TransitionCount,
				}); err != nil {
					return err
				}
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if streamStats {
			printStats(detector.Stats())
		}
		return nil
	},
}

// ============================================================================
// Trace Command
// ============================================================================

var traceLimit int

var traceCmd = &cobra.Command{
	Use:   "trace <db>",
	Short: "Show recent entries from a score trace database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recorder, err := trace.Open(args[0])
		if err != nil {
			return err
		}
		defer recorder.Close()

		entries, err := recorder.Recent(traceLimit)
		if err != nil {
			return err
		}

		for _, e := range entries {
			fmt.Printf("%s  score=%.4f accuracy=%.4f domains=%d  %s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"),
				e.Score, e.Accuracy, e.DomainCount, e.Input)
		}
		return nil
	},
}

func printStats(stats anomaly.Stats) {
	fmt.Println()
	fmt.Printf("Domains:         %d\n", stats.DomainCount)
	fmt.Printf("Active domains:  %d\n", len(stats.ActiveDomains))
	fmt.Printf("Transitions:     %d\n", stats.TransitionCount)
	fmt.Printf("Average anomaly: %.4f\n", stats.AverageAnomaly)
	for _, p := range stats.DomainProfiles {
		fmt.Printf("  %s  strength=%.3f queries=%d lastSeen=%s\n",
			p.ID, p.Strength, p.QueryCount, p.LastSeen.Format("15:04:05"))
	}
}

func init() {
	streamCmd.Flags().StringVarP(&streamConfig, "config", "c", "", "Path to YAML config file")
	streamCmd.Flags().StringVarP(&streamTrace, "trace", "t", "", "Record scores to a SQLite trace database")
	streamCmd.Flags().BoolVarP(&streamStats, "stats", "s", false, "Print engine stats after the stream ends")
	rootCmd.AddCommand(streamCmd)

	traceCmd.Flags().IntVarP(&traceLimit, "limit", "l", 20, "Maximum entries to show")
	rootCmd.AddCommand(traceCmd)
}

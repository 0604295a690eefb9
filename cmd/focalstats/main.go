package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/quidome/focalstats/pkg/aggregate"
	"github.com/quidome/focalstats/pkg/config"
	"github.com/quidome/focalstats/pkg/crop"
	"github.com/quidome/focalstats/pkg/extract"
	"github.com/quidome/focalstats/pkg/meta"
	"github.com/quidome/focalstats/pkg/observability"
	"github.com/quidome/focalstats/pkg/report"
	"github.com/quidome/focalstats/pkg/scan"
)

const version = "0.1.0"

const dateLayout = "2006-01-02"

type options struct {
	verbose bool
}

// sourceFlags are the extraction settings shared by stats and crop-table.
// Flags that were not set fall back to the environment configuration.
type sourceFlags struct {
	noExifTool      bool
	exifTool        string
	exifToolTimeout time.Duration
	workers         int
	cropFile        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "focalstats",
		Short:   "Focal length and exposure statistics for JPEG collections",
		Long:    "Focal Stats reads capture metadata (camera, lens, focal length, aperture, shutter, ISO) from a tree of JPEG files and reports how often each focal length or exposure setting was used.",
		Version: version,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("Focal Stats CLI")
			cmd.Printf("Version: %s\n", version)
			if opts.verbose {
				cmd.Println("Verbose mode: enabled")
			}
			cmd.Println("")
			cmd.Println("Use --help to see available commands and options")
		},
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newCropTableCmd(opts))

	return rootCmd
}

func newScanCmd(opts *options) *cobra.Command {
	var maxDepth int
	var jsonOutput bool

	scanCmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "List the JPEG files of a directory",
		Long:  "Scan a directory and print all JPEG files found (relative to the scan root).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory := args[0]

			scanOpts := scan.DefaultOptions()
			scanOpts.MaxDepth = maxDepth

			records, err := scan.ScanRecords(os.DirFS(directory), ".", scanOpts)
			if err != nil {
				return err
			}

			if jsonOutput {
				if records == nil {
					records = []scan.Record{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			for _, r := range records {
				cmd.Println(r.Path)
			}

			if opts.verbose {
				cmd.PrintErrf("found %d jpeg files\n", len(records))
			}

			return nil
		},
	}

	scanCmd.Flags().IntVar(&maxDepth, "max-depth", -1, "maximum recursion depth (0 = no recursion)")
	scanCmd.Flags().BoolVar(&jsonOutput, "json", false, "print records as JSON")

	return scanCmd
}

func newStatsCmd(opts *options) *cobra.Command {
	var (
		src             sourceFlags
		metricName      string
		rawMM           bool
		binWidth        float64
		topK            int
		cameras         []string
		lenses          []string
		since           string
		until           string
		csvPath         string
		metricsTextfile string
	)

	statsCmd := &cobra.Command{
		Use:   "stats [directory]",
		Short: "Summarize focal lengths or exposure settings",
		Long:  "Read the metadata of every JPEG below a directory and print the most used focal lengths (35mm equivalent by default), shutter speeds or ISO values, overall and per camera and lens.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := aggregate.ParseMetric(metricName)
			if err != nil {
				return err
			}
			if rawMM {
				metric = aggregate.MetricFocal
			}

			view := aggregate.View{
				Metric:   metric,
				BinWidth: binWidth,
				Cameras:  cameras,
				Lenses:   lenses,
			}
			if view.Since, err = parseDate(since, false); err != nil {
				return fmt.Errorf("--since: %w", err)
			}
			if view.Until, err = parseDate(until, true); err != nil {
				return fmt.Errorf("--until: %w", err)
			}

			logger := observability.NewLogger(cmd.ErrOrStderr(), opts.verbose)
			metrics := observability.NewMetrics()

			records, err := loadRecords(cmd, args[0], &src, logger, metrics)
			if err != nil {
				return err
			}

			if csvPath != "" {
				if err := report.SaveCSV(csvPath, records); err != nil {
					return err
				}
				logger.Info("wrote csv", "path", csvPath, "records", len(records))
			}

			if err := report.Summary(cmd.OutOrStdout(), records, view, topK); err != nil {
				return err
			}

			if metricsTextfile != "" {
				return metrics.WriteTextfile(metricsTextfile)
			}
			return nil
		},
	}

	addSourceFlags(statsCmd, &src)
	statsCmd.Flags().StringVar(&metricName, "metric", string(aggregate.MetricFocal35), "value to count: focal35, focal, shutter or iso")
	statsCmd.Flags().BoolVar(&rawMM, "raw-mm", false, "count physical focal lengths instead of 35mm equivalents")
	statsCmd.Flags().Float64Var(&binWidth, "bin", 0, "bin width (default depends on the metric)")
	statsCmd.Flags().IntVar(&topK, "topk", 15, "number of bins in the overall summary")
	statsCmd.Flags().StringSliceVar(&cameras, "camera", nil, "only count these camera models (repeatable)")
	statsCmd.Flags().StringSliceVar(&lenses, "lens", nil, "only count these lenses (repeatable)")
	statsCmd.Flags().StringVar(&since, "since", "", "only count captures on or after this date (YYYY-MM-DD)")
	statsCmd.Flags().StringVar(&until, "until", "", "only count captures on or before this date (YYYY-MM-DD)")
	statsCmd.Flags().StringVar(&csvPath, "csv", "", "also write every record to this CSV file")
	statsCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "write run counters to this file in Prometheus text format")

	return statsCmd
}

func newCropTableCmd(opts *options) *cobra.Command {
	var src sourceFlags

	cropCmd := &cobra.Command{
		Use:   "crop-table [directory]",
		Short: "Print a crop factor override file for the cameras found",
		Long:  "Read the camera models of every JPEG below a directory and print a YAML crop file with a guessed crop factor per model, ready to be edited and passed to stats --crop-file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.NewLogger(cmd.ErrOrStderr(), opts.verbose)

			records, err := loadRecords(cmd, args[0], &src, logger, nil)
			if err != nil {
				return err
			}

			models := meta.Models(records)
			if len(models) == 0 {
				cmd.PrintErrln("no camera models found")
				return nil
			}
			return crop.SuggestFile(models).Encode(cmd.OutOrStdout())
		},
	}

	addSourceFlags(cropCmd, &src)
	return cropCmd
}

func addSourceFlags(cmd *cobra.Command, src *sourceFlags) {
	cmd.Flags().BoolVar(&src.noExifTool, "no-exiftool", false, "skip exiftool and read every file directly")
	cmd.Flags().StringVar(&src.exifTool, "exiftool", "", "exiftool binary (env "+config.EnvExifTool+")")
	cmd.Flags().DurationVar(&src.exifToolTimeout, "exiftool-timeout", 0, "exiftool run limit (env "+config.EnvExifToolTimeout+")")
	cmd.Flags().IntVar(&src.workers, "workers", 0, "files read in parallel without exiftool (env "+config.EnvWorkers+")")
	cmd.Flags().StringVar(&src.cropFile, "crop-file", "", "YAML crop factor overrides (env "+config.EnvCropFile+")")
}

// resolve merges explicitly set flags over the environment configuration.
func (src *sourceFlags) resolve(cmd *cobra.Command, cfg config.Config) config.Config {
	flags := cmd.Flags()
	if flags.Changed("no-exiftool") {
		cfg.DisableExifTool = src.noExifTool
	}
	if flags.Changed("exiftool") {
		cfg.ExifTool = src.exifTool
	}
	if flags.Changed("exiftool-timeout") && src.exifToolTimeout > 0 {
		cfg.ExifToolTimeout = src.exifToolTimeout
	}
	if flags.Changed("workers") && src.workers > 0 {
		cfg.Workers = src.workers
	}
	if flags.Changed("crop-file") {
		cfg.CropFile = src.cropFile
	}
	return cfg
}

// loadRecords extracts and normalizes the records below dir.
func loadRecords(cmd *cobra.Command, dir string, src *sourceFlags, logger *slog.Logger, metrics *observability.Metrics) ([]meta.Record, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg = src.resolve(cmd, cfg)

	estimator := crop.Estimator{}
	if cfg.CropFile != "" {
		cf, err := crop.LoadFile(cfg.CropFile)
		if err != nil {
			return nil, err
		}
		estimator = cf.Estimator()
	}

	source := extract.Source{
		Workers: cfg.Workers,
		Logger:  logger,
		Metrics: metrics,
	}
	if !cfg.DisableExifTool {
		source.Batch = extract.ExifTool{Path: cfg.ExifTool, Timeout: cfg.ExifToolTimeout}
	}

	raws, err := source.Extract(cmd.Context(), dir)
	if err != nil {
		return nil, err
	}

	records := meta.NormalizeAll(raws, estimator, time.Local)

	estimated := 0
	for _, r := range records {
		if r.EquivalentIsEstimated {
			estimated++
		}
	}
	metrics.EquivalentsEstimated(estimated)
	logger.Debug("normalized records", "records", len(records), "estimated_equivalents", estimated)

	return records, nil
}

// parseDate reads a YYYY-MM-DD date in local time. With endOfDay the last
// instant of that day is returned so the bound is inclusive.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

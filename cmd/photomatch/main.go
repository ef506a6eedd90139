package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/circleapp/photomatch/internal/config"
	"github.com/circleapp/photomatch/internal/feature"
	"github.com/circleapp/photomatch/internal/logging"
	"github.com/circleapp/photomatch/internal/match"
	"github.com/circleapp/photomatch/internal/media"
	"github.com/circleapp/photomatch/internal/metrics"
	"github.com/circleapp/photomatch/internal/store"
)

const version = "0.3.0"

var (
	configPath string

	flagThreshold    float64
	flagMaxPerMemory int
	flagMaxYearDist  int
	flagJSON         bool
)

var rootCmd = &cobra.Command{
	Use:   "photomatch",
	Short: "photomatch - match family photos to life-story memories",
	Long:  `photomatch scores every memory against the photo library on temporal and textual signals and assigns photos under a global uniqueness policy.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	matchCmd.Flags().Float64Var(&flagThreshold, "threshold", -1, "confidence threshold override (0-100)")
	matchCmd.Flags().IntVar(&flagMaxPerMemory, "max-per-memory", 0, "max photos per memory override")
	matchCmd.Flags().IntVar(&flagMaxYearDist, "max-year-distance", 0, "max year distance override")
	matchCmd.Flags().BoolVar(&flagJSON, "json", false, "emit JSON instead of text")
	suggestCmd.Flags().BoolVar(&flagJSON, "json", false, "emit JSON instead of text")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(coverCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// app bundles the wired components every subcommand needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *store.DB
	library *store.Library
	engine  *match.Engine
	metrics *metrics.Writer
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", zap.Error(err), zap.String("path", cfg.DBPath))
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	extractor := feature.NewExtractor(cfg.KnownNames, nil)

	var writer *metrics.Writer
	if cfg.MetricsEnabled {
		writer = metrics.NewWriter(db.Conn(), logger)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		library: store.NewLibrary(db),
		engine:  match.NewEngine(extractor, logger),
		metrics: writer,
	}, nil
}

func (a *app) Close() {
	a.metrics.Close()
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// options merges config values with any flag overrides.
func (a *app) options() match.Options {
	opts := match.Options{
		ConfidenceThreshold: a.cfg.ConfidenceThreshold,
		MaxPerMemory:        a.cfg.MaxPerMemory,
		MaxYearDistance:     a.cfg.MaxYearDistance,
		Parallelism:         a.cfg.Parallelism,
		Weights: match.Weights{
			Temporal: a.cfg.TemporalWeight,
			Names:    a.cfg.NamesWeight,
			Keywords: a.cfg.KeywordsWeight,
			Visual:   a.cfg.VisualWeight,
		},
	}
	if flagThreshold >= 0 {
		opts.ConfidenceThreshold = flagThreshold
	}
	if flagMaxPerMemory > 0 {
		opts.MaxPerMemory = flagMaxPerMemory
	}
	if flagMaxYearDist > 0 {
		opts.MaxYearDistance = flagMaxYearDist
	}
	return opts
}

// loadCandidates performs the single bulk media read and normalizes it.
func (a *app) loadCandidates() ([]media.Candidate, error) {
	records, err := a.library.ListPhotos()
	if err != nil {
		return nil, err
	}
	candidates := make([]media.Candidate, 0, len(records))
	for _, raw := range records {
		candidates = append(candidates, media.Normalize(raw))
	}
	return candidates, nil
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match photos to every memory in the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		memories, err := a.library.ListMemories()
		if err != nil {
			return err
		}
		candidates, err := a.loadCandidates()
		if err != nil {
			return err
		}

		result, err := a.engine.MatchAll(memories, candidates, a.options())
		if err != nil {
			return err
		}

		a.metrics.Write(metrics.RunMetric{
			RunID:          result.RunID,
			Memories:       len(memories),
			Photos:         len(candidates),
			Matched:        result.Stats.MemoriesMatched,
			UniquePhotos:   result.Stats.UniquePhotosUsed,
			FallbackReuses: result.Stats.FallbackReuses,
			DurationMs:     result.Duration.Milliseconds(),
			CreatedAt:      time.Now(),
		})

		if flagJSON {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		printResult(result)
		return nil
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <memory-id>",
	Short: "Preview ranked photo candidates for one memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid memory id %q", args[0])
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		mem, err := a.library.GetMemory(id)
		if err != nil {
			return err
		}
		candidates, err := a.loadCandidates()
		if err != nil {
			return err
		}

		scored, err := a.engine.MatchOne(*mem, candidates, a.options())
		if err != nil {
			return err
		}

		if flagJSON {
			return json.NewEncoder(os.Stdout).Encode(scored)
		}

		fmt.Printf("Memory %d: %s\n", mem.ID, truncate(mem.Text, 70))
		if len(scored) == 0 {
			fmt.Println("  no candidates scored above zero")
			return nil
		}
		for _, cand := range scored {
			b := cand.Breakdown
			fmt.Printf("  photo %-6d total %5.1f  (temporal %.1f, names %.1f, keywords %.1f, visual %.1f)\n",
				cand.PhotoID, b.Total, b.Temporal, b.Names, b.Keywords, b.Visual)
		}
		return nil
	},
}

var coverCmd = &cobra.Command{
	Use:   "cover",
	Short: "Select the album cover photo",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		candidates, err := a.loadCandidates()
		if err != nil {
			return err
		}

		cover := match.SelectCover(candidates)
		if cover == nil {
			fmt.Println("no image candidates in the library")
			return nil
		}
		fmt.Printf("cover: photo %d (%s)\n", cover.ID, cover.Filename)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library and run counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		memories, mediaItems, runs, err := a.library.Counts()
		if err != nil {
			return err
		}
		fmt.Printf("memories:   %d\n", memories)
		fmt.Printf("media:      %d\n", mediaItems)
		fmt.Printf("match runs: %d\n", runs)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the photomatch version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("photomatch %s\n", version)
	},
}

var completionCmd = &cobra.Command{
	Use:                   "completion [bash|zsh|fish|powershell]",
	Short:                 "Generate the autocompletion script for the specified shell",
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

func printResult(result *match.BatchResult) {
	ids := make([]int64, 0, len(result.Assignments))
	for id := range result.Assignments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		photos := result.Assignments[id]
		if len(photos) == 0 {
			fmt.Printf("memory %-6d (no photos above threshold)\n", id)
			continue
		}
		fmt.Printf("memory %-6d photos %v\n", id, photos)
	}

	fmt.Printf("\nmatched %d memories, %d unique photos used, %d fallback reuses\n",
		result.Stats.MemoriesMatched, result.Stats.UniquePhotosUsed, result.Stats.FallbackReuses)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipmatch/internal/clipcache"
	"clipmatch/internal/config"
	"clipmatch/internal/dataset"
	"clipmatch/internal/encode"
	"clipmatch/internal/metrics"
	"clipmatch/internal/results"
	"clipmatch/internal/services"
	"clipmatch/internal/stats"
	"clipmatch/internal/triplet"
)

func newEvaluateCommand(ctx *commandContext) *cobra.Command {
	var role string
	var dataStats bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a split with retrieval and triplet metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if dataStats {
				return runDataStats(cmd, cfg)
			}
			return runEvaluate(cmd, ctx, cfg, role)
		},
	}

	cmd.Flags().StringVar(&role, "split", "val", "Dataset role to evaluate (val, test)")
	cmd.Flags().BoolVar(&dataStats, "data-stats", false, "Report clip counts and hours per role instead of scoring")
	return cmd
}

func runEvaluate(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, role string) error {
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	variant, err := roleVariant(cfg, role)
	if err != nil {
		return err
	}
	dir, err := variantCacheDir(cfg, variant)
	if err != nil {
		return err
	}
	manifest, err := clipcache.Load(dir)
	if err != nil {
		return fmt.Errorf("load clip cache (run `clipmatch extract --role %s` first): %w", role, err)
	}

	norm, err := loadNormalization(cfg)
	if err != nil {
		return err
	}
	loader := dataset.NewLoader(dir, manifest, newExtractor(cfg, variant, logger), dataset.LoaderOptions{
		Workers: variant.Workers,
		Norm:    norm,
	}, logger)
	items, err := loader.Clips(cmd.Context())
	if err != nil {
		return err
	}

	encoder, err := encode.NewMeanEncoder(cfg.Model.EmbeddingDim, cfg.Model.VideoPooling, cfg.Model.AudioPooling, cfg.Eval.Seed)
	if err != nil {
		return err
	}
	scorer := triplet.NewScorer(encoder, variant.BatchSize, logger)
	result, err := scorer.Score(cmd.Context(), items, triplet.ScoreOptions{
		RecallN:          cfg.Eval.RecallN,
		ResampleSize:     cfg.Eval.ResampleSize,
		ResampleCount:    cfg.Eval.ResampleCount,
		TripletSamples:   cfg.Eval.TripletSamples,
		DurationBucketMS: cfg.Eval.DurationBucketMS,
		Seed:             cfg.Eval.Seed,
	})
	if err != nil {
		return err
	}

	store, err := ctx.openResults()
	if err != nil {
		return err
	}
	defer store.Close()

	snapshot, err := json.Marshal(map[string]any{"eval": cfg.Eval, "model": cfg.Model})
	if err != nil {
		return fmt.Errorf("encode run config: %w", err)
	}
	run, err := store.CreateRun(cmd.Context(), results.Run{
		Split:        role,
		FragmentType: variant.FragmentType,
		Clips:        result.Clips,
		Config:       string(snapshot),
	})
	if err != nil {
		return err
	}
	if err := store.AddScores(cmd.Context(), run.ID, results.ScoresFromResult(result, cfg.Eval.RecallN)); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run: %s\n", run.UUID)
	fmt.Fprintf(out, "Split: %s (%s), %d clips\n", role, variant.FragmentType, result.Clips)
	fmt.Fprintln(out, renderScoreTable(result, cfg.Eval.RecallN))
	return nil
}

// loadNormalization resolves the configured stats file. The kinetics preset
// falls back to its built-in constants when no file overrides them; dataset
// mode requires a prior `clipmatch stats` run.
func loadNormalization(cfg *config.Config) (*stats.Stats, error) {
	path, err := cfg.StatsPath()
	if err != nil {
		return nil, err
	}
	loaded, err := stats.Load(path)
	if err != nil {
		if cfg.Dataset.Normalization == "kinetics" && errors.Is(err, services.ErrNotFound) {
			preset := stats.Kinetics()
			return &preset, nil
		}
		if errors.Is(err, services.ErrNotFound) {
			return nil, fmt.Errorf("normalization stats missing (run `clipmatch stats` first): %w", err)
		}
		return nil, err
	}
	return &loaded, nil
}

func renderScoreTable(result triplet.Result, recallN int) string {
	rows := [][]string{
		{metricLabel(results.MetricRecallPoint), "@" + strconv.Itoa(recallN), formatScore(result.RecallPoint)},
	}
	for n := 1; n <= recallN; n++ {
		values := make([]float64, 0, len(result.Recall))
		for _, row := range result.Recall {
			if n-1 < len(row) {
				values = append(values, row[n-1])
			}
		}
		mean, std := metrics.Summarize(values)
		rows = append(rows, []string{metricLabel(results.MetricRecall), "@" + strconv.Itoa(n), formatMeanStd(mean, std)})
	}
	mean, std := metrics.Summarize(result.TripletAccuracies)
	rows = append(rows, []string{metricLabel(results.MetricTripletAccuracy), "", formatMeanStd(mean, std)})

	return renderTable(
		[]string{"Metric", "Cutoff", "Score"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	)
}

// runDataStats renders the per-role dataset report: clip counts and total
// hours for every role whose cache is populated.
func runDataStats(cmd *cobra.Command, cfg *config.Config) error {
	roles := []string{"train", "val", "test"}
	rows := make([][]string, 0, len(roles))
	for _, role := range roles {
		variant, err := roleVariant(cfg, role)
		if err != nil {
			return err
		}
		dir, err := variantCacheDir(cfg, variant)
		if err != nil {
			return err
		}
		manifest, err := clipcache.Load(dir)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				rows = append(rows, []string{role, variant.FragmentType, "-", "-"})
				continue
			}
			return err
		}
		var seconds float64
		for _, entry := range manifest.Entries {
			seconds += entry.Duration
		}
		rows = append(rows, []string{
			role,
			variant.FragmentType,
			strconv.Itoa(manifest.Len()),
			fmt.Sprintf("%.2f", seconds/3600),
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Role", "Fragment", "Clips", "Hours"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	))
	return nil
}

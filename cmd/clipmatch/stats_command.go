package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipmatch/internal/clipcache"
	"clipmatch/internal/dataset"
	"clipmatch/internal/media/clips"
	"clipmatch/internal/stats"
	"clipmatch/internal/triplet"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Compute and persist normalization statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
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

			loader := dataset.NewLoader(dir, manifest, newExtractor(cfg, variant, logger), dataset.LoaderOptions{
				Workers: variant.Workers,
			}, logger)
			items, err := loader.Clips(cmd.Context())
			if err != nil {
				return err
			}

			bucket := func(c clips.Clip) float64 { return triplet.Bucket(c.Duration, cfg.Eval.DurationBucketMS) }
			stream := func(yield func(stats.Batch) error) error {
				for _, batch := range dataset.GroupedBatches(items, bucket, variant.BatchSize) {
					collated, err := dataset.Collate(batch)
					if err != nil {
						return err
					}
					if err := yield(stats.Batch{Video: collated.Video, Audio: collated.Audio}); err != nil {
						return err
					}
				}
				return nil
			}
			computed, err := stats.Compute(stream)
			if err != nil {
				return err
			}
			if err := stats.Save(cfg.Paths.StatsFile, computed); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Clips: %d\n", len(items))
			fmt.Fprintf(out, "Stats: %s\n", cfg.Paths.StatsFile)
			rows := make([][]string, 0, len(computed.VideoMean)+len(computed.AudioMean))
			for i := range computed.VideoMean {
				rows = append(rows, []string{
					"video " + strconv.Itoa(i),
					formatScore(computed.VideoMean[i]),
					formatScore(computed.VideoStd[i]),
				})
			}
			for i := range computed.AudioMean {
				rows = append(rows, []string{
					"audio " + strconv.Itoa(i),
					formatScore(computed.AudioMean[i]),
					formatScore(computed.AudioStd[i]),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Channel", "Mean", "Std"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "train", "Dataset role whose cache feeds the statistics")
	return cmd
}

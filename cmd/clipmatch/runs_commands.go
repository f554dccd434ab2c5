package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"clipmatch/internal/metrics"
	"clipmatch/internal/results"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect persisted evaluation runs",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List evaluation runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openResults()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No evaluation runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.UUID[:8],
					run.CreatedAt.Local().Format("2006-01-02 15:04"),
					run.Split,
					run.FragmentType,
					strconv.Itoa(run.Clips),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Created", "Split", "Fragment", "Clips"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run>",
		Short: "Show the stored scores for one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openResults()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.FindRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			scores, err := store.RunScores(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run: %s\n", run.UUID)
			fmt.Fprintf(out, "Created: %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Split: %s (%s), %d clips\n", run.Split, run.FragmentType, run.Clips)

			var rows [][]string
			for _, score := range scores {
				if score.Metric == results.MetricRecallPoint {
					rows = append(rows, []string{
						metricLabel(score.Metric),
						"@" + strconv.Itoa(score.Cutoff),
						formatScore(score.Value),
					})
				}
			}
			recall := results.RecallDistribution(scores)
			cutoffs := make([]int, 0, len(recall))
			for cutoff := range recall {
				cutoffs = append(cutoffs, cutoff)
			}
			sort.Ints(cutoffs)
			for _, cutoff := range cutoffs {
				mean, std := metrics.Summarize(recall[cutoff])
				rows = append(rows, []string{
					metricLabel(results.MetricRecall),
					"@" + strconv.Itoa(cutoff),
					formatMeanStd(mean, std),
				})
			}
			if triplets := results.TripletDistribution(scores); len(triplets) > 0 {
				mean, std := metrics.Summarize(triplets)
				rows = append(rows, []string{metricLabel(results.MetricTripletAccuracy), "", formatMeanStd(mean, std)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Metric", "Cutoff", "Score"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

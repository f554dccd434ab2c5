package main

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clipmatch/internal/config"
)

var titleCaser = cases.Title(language.Und)

// metricLabel renders a stored metric name for table headers, e.g.
// "triplet_accuracy" becomes "Triplet Accuracy".
func metricLabel(metric string) string {
	return titleCaser.String(strings.ReplaceAll(metric, "_", " "))
}

func humanBytes(value int64) string {
	const unit = 1024
	if value < unit {
		return fmt.Sprintf("%d B", value)
	}
	div, exp := int64(unit), 0
	for n := value / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(value)/float64(div), "KMGTPE"[exp])
}

// roleVariant resolves a --role flag value to its configured variant.
func roleVariant(cfg *config.Config, role string) (config.DatasetVariant, error) {
	variant, err := cfg.Variant(role)
	if err != nil {
		return config.DatasetVariant{}, fmt.Errorf("resolve dataset role: %w", err)
	}
	return variant, nil
}

func formatScore(value float64) string {
	return fmt.Sprintf("%.4f", value)
}

func formatMeanStd(mean, std float64) string {
	return fmt.Sprintf("%.4f ± %.4f", mean, std)
}

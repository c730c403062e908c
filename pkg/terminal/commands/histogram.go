package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
	"github.com/de-tools/ledger-atlas/pkg/terminal/export"
)

type HistogramCmd struct {
	configPath string
	field      string
	maxBins    int
	noCache    bool
	factory    RuntimeFactory
	reporter   *export.Reporter
}

func NewHistogramCmd(factory RuntimeFactory, reporter *export.Reporter) *cobra.Command {
	hc := &HistogramCmd{factory: factory, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "histogram",
		Short: "Show the distribution of a numeric field",
		RunE:  hc.run,
	}

	cmd.Flags().StringVar(&hc.configPath, "config", "", "Path to the configuration file")
	cmd.Flags().StringVar(&hc.field, "field", "", "Numeric field to bin")
	cmd.Flags().IntVar(&hc.maxBins, "max-bins", 0, "Upper bound on the number of bins")
	cmd.Flags().BoolVar(&hc.noCache, "no-cache", false, "Recompute instead of reading cached results")

	return cmd
}

func (hc *HistogramCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	rt, err := hc.factory(ctx, hc.configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	hist, err := rt.Catalog.GetHistogram(ctx, domain.HistogramRequest{
		ValueField: hc.field,
		MaxBins:    hc.maxBins,
		UseCache:   !hc.noCache,
	})
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}

	return hc.reporter.Handle(renderHistogram(hist))
}

func renderHistogram(hist *domain.Histogram) *domain.Report {
	section := domain.ReportSection{
		Title: "Bins",
		Summary: map[string]interface{}{
			"Status":    string(hist.Status),
			"Values":    hist.TotalCount,
			"Bin width": fmt.Sprintf("%.2f", hist.BinWidth),
			"Method":    hist.Method,
		},
	}
	for _, bin := range hist.Bins {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        fmt.Sprintf("[%.2f, %.2f)", bin.Min, bin.Max),
			Value:       bin.Count,
			Description: fmt.Sprintf("%.2f%%", bin.Percentage),
		})
	}

	return &domain.Report{
		Title:    "Value Distribution",
		Sections: []domain.ReportSection{section},
	}
}

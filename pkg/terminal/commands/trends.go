package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
	"github.com/de-tools/ledger-atlas/pkg/terminal/export"
)

type TrendsCmd struct {
	configPath string
	noCache    bool
	factory    RuntimeFactory
	reporter   *export.Reporter
}

func NewTrendsCmd(factory RuntimeFactory, reporter *export.Reporter) *cobra.Command {
	tc := &TrendsCmd{factory: factory, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Analyze the monthly spending trend and forecast",
		RunE:  tc.run,
	}

	cmd.Flags().StringVar(&tc.configPath, "config", "", "Path to the configuration file")
	cmd.Flags().BoolVar(&tc.noCache, "no-cache", false, "Recompute instead of reading cached results")

	return cmd
}

func (tc *TrendsCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	rt, err := tc.factory(ctx, tc.configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.Catalog.DetectTrends(ctx, domain.TrendRequest{UseCache: !tc.noCache})
	if err != nil {
		return fmt.Errorf("failed to analyze trend: %w", err)
	}

	return tc.reporter.Handle(renderTrend(report))
}

func renderTrend(report *domain.TrendReport) *domain.Report {
	forecast := domain.ReportSection{Title: "Forecast"}
	for _, fp := range report.Forecast {
		forecast.Details = append(forecast.Details, domain.ReportDetail{
			Name:  fmt.Sprintf("Period +%d", fp.PeriodIndex),
			Value: fmt.Sprintf("%.2f", fp.Value),
			Unit:  "USD",
		})
	}

	return &domain.Report{
		Title:    "Spending Trend",
		Currency: "USD",
		Sections: []domain.ReportSection{
			{
				Title: "Fit",
				Summary: map[string]interface{}{
					"Status":     string(report.Status),
					"Direction":  string(report.Direction),
					"Strength":   fmt.Sprintf("%.2f", report.Strength),
					"Confidence": fmt.Sprintf("%.2f", report.Confidence),
					"Slope":      fmt.Sprintf("%.4f", report.Slope),
					"R squared":  fmt.Sprintf("%.3f", report.RSquared),
				},
			},
			forecast,
		},
	}
}

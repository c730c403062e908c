package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
	"github.com/de-tools/ledger-atlas/pkg/terminal/export"
)

type KPIsCmd struct {
	configPath string
	noCache    bool
	factory    RuntimeFactory
	reporter   *export.Reporter
}

func NewKPIsCmd(factory RuntimeFactory, reporter *export.Reporter) *cobra.Command {
	kc := &KPIsCmd{factory: factory, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "kpis",
		Short: "Show the consolidated KPI snapshot",
		RunE:  kc.run,
	}

	cmd.Flags().StringVar(&kc.configPath, "config", "", "Path to the configuration file")
	cmd.Flags().BoolVar(&kc.noCache, "no-cache", false, "Recompute instead of reading cached results")

	return cmd
}

func (kc *KPIsCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	rt, err := kc.factory(ctx, kc.configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	kpis, err := rt.Catalog.GetKPIs(ctx, domain.KPIRequest{UseCache: !kc.noCache})
	if err != nil {
		return fmt.Errorf("failed to compute KPIs: %w", err)
	}

	return kc.reporter.Handle(renderKPIs(kpis))
}

func renderKPIs(kpis *domain.KPISnapshot) *domain.Report {
	return &domain.Report{
		Title:       "Key Performance Indicators",
		TotalAmount: kpis.TotalAmount,
		Currency:    "USD",
		Sections: []domain.ReportSection{
			{
				Title: "Overview",
				Summary: map[string]interface{}{
					"Transactions":         kpis.TotalTransactions,
					"Average transaction":  fmt.Sprintf("%.2f", kpis.AverageTransaction),
					"Month over month":     fmt.Sprintf("%.1f%%", kpis.MonthOverMonthGrowth),
					"Outliers":             kpis.OutlierCount,
					"Trend":                string(kpis.TrendDirection),
					"Trend strength":       fmt.Sprintf("%.2f", kpis.TrendStrength),
					"Trend confidence":     fmt.Sprintf("%.2f", kpis.TrendConfidence),
				},
			},
			{
				Title: "Leaders",
				Details: []domain.ReportDetail{
					{
						Name:        kpis.TopVendor.Name,
						Value:       fmt.Sprintf("%.2f", kpis.TopVendor.Amount),
						Unit:        "USD",
						Description: fmt.Sprintf("Top vendor, %d transactions", kpis.TopVendor.TransactionCount),
					},
					{
						Name:        kpis.TopDocumentType.Type,
						Value:       fmt.Sprintf("%.2f", kpis.TopDocumentType.Amount),
						Unit:        "USD",
						Description: fmt.Sprintf("Top document type, %d records", kpis.TopDocumentType.Count),
					},
				},
			},
		},
	}
}

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
	"github.com/de-tools/ledger-atlas/pkg/terminal/export"
)

type OutliersCmd struct {
	configPath    string
	method        string
	features      []string
	contamination float64
	valueField    string
	zThreshold    float64
	noCache       bool
	factory       RuntimeFactory
	reporter      *export.Reporter
}

func NewOutliersCmd(factory RuntimeFactory, reporter *export.Reporter) *cobra.Command {
	oc := &OutliersCmd{factory: factory, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "outliers",
		Short: "Detect anomalous transactions",
		RunE:  oc.run,
	}

	cmd.Flags().StringVar(&oc.configPath, "config", "", "Path to the configuration file")
	cmd.Flags().StringVar(&oc.method, "method", "ensemble", "Detection method: ensemble or zscore")
	cmd.Flags().StringSliceVar(&oc.features, "features", nil, "Numeric features for the ensemble method")
	cmd.Flags().Float64Var(&oc.contamination, "contamination", 0, "Expected outlier fraction for the ensemble method")
	cmd.Flags().StringVar(&oc.valueField, "value-field", "", "Field to score for the zscore method")
	cmd.Flags().Float64Var(&oc.zThreshold, "z-threshold", 0, "Z-score cutoff for the zscore method")
	cmd.Flags().BoolVar(&oc.noCache, "no-cache", false, "Recompute instead of reading cached results")

	return cmd
}

func (oc *OutliersCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	rt, err := oc.factory(ctx, oc.configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	switch oc.method {
	case "zscore":
		report, err := rt.Catalog.DetectZScoreOutliers(ctx, domain.ZScoreOutlierRequest{
			ValueField: oc.valueField,
			Threshold:  oc.zThreshold,
			UseCache:   !oc.noCache,
		})
		if err != nil {
			return fmt.Errorf("failed to detect outliers: %w", err)
		}
		return oc.reporter.Handle(renderZScoreOutliers(report))
	case "ensemble":
		outliers, err := rt.Catalog.DetectOutliers(ctx, domain.OutlierRequest{
			Features:      oc.features,
			Contamination: oc.contamination,
			UseCache:      !oc.noCache,
		})
		if err != nil {
			return fmt.Errorf("failed to detect outliers: %w", err)
		}
		return oc.reporter.Handle(renderOutliers(outliers))
	default:
		return fmt.Errorf("unknown detection method %q", oc.method)
	}
}

func renderOutliers(outliers []domain.OutlierRecord) *domain.Report {
	section := domain.ReportSection{
		Title: "Flagged Transactions",
		Summary: map[string]interface{}{
			"Flagged": len(outliers),
		},
	}
	for _, o := range outliers {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        fmt.Sprintf("%s / %s", o.Vendor, o.Date),
			Value:       fmt.Sprintf("%.2f", o.Amount),
			Unit:        "USD",
			Description: fmt.Sprintf("score %.3f, driven by %s", o.OutlierScore, o.PrimaryFactor),
		})
	}

	return &domain.Report{
		Title:    "Outlier Detection (ensemble)",
		Currency: "USD",
		Sections: []domain.ReportSection{section},
	}
}

func renderZScoreOutliers(report *domain.ZScoreReport) *domain.Report {
	section := domain.ReportSection{
		Title: "Flagged Transactions",
		Summary: map[string]interface{}{
			"Status":    string(report.Status),
			"Flagged":   len(report.Outliers),
			"Mean":      fmt.Sprintf("%.2f", report.Mean),
			"Std":       fmt.Sprintf("%.2f", report.Std),
			"Threshold": fmt.Sprintf("%.1f", report.Threshold),
		},
	}
	for _, o := range report.Outliers {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        fmt.Sprintf("%s / %s", o.Vendor, o.Date),
			Value:       fmt.Sprintf("%.2f", o.Amount),
			Unit:        "USD",
			Description: o.Reason,
		})
	}

	return &domain.Report{
		Title:    "Outlier Detection (z-score)",
		Currency: "USD",
		Sections: []domain.ReportSection{section},
	}
}

package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/de-tools/ledger-atlas/pkg/models/domain"
	"github.com/de-tools/ledger-atlas/pkg/terminal/export"
)

type SegmentsCmd struct {
	configPath string
	clusters   int
	features   []string
	noCache    bool
	factory    RuntimeFactory
	reporter   *export.Reporter
}

func NewSegmentsCmd(factory RuntimeFactory, reporter *export.Reporter) *cobra.Command {
	sc := &SegmentsCmd{factory: factory, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Group transactions into behavioral segments",
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.configPath, "config", "", "Path to the configuration file")
	cmd.Flags().IntVar(&sc.clusters, "clusters", 0, "Number of segments to produce")
	cmd.Flags().StringSliceVar(&sc.features, "features", nil, "Numeric features to segment on")
	cmd.Flags().BoolVar(&sc.noCache, "no-cache", false, "Recompute instead of reading cached results")

	return cmd
}

func (sc *SegmentsCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	rt, err := sc.factory(ctx, sc.configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.Catalog.SegmentRecords(ctx, domain.SegmentRequest{
		Features:  sc.features,
		NClusters: sc.clusters,
		UseCache:  !sc.noCache,
	})
	if err != nil {
		return fmt.Errorf("failed to segment records: %w", err)
	}

	return sc.reporter.Handle(renderSegments(report))
}

func renderSegments(report *domain.ClusterReport) *domain.Report {
	section := domain.ReportSection{
		Title: "Segments",
		Summary: map[string]interface{}{
			"Status":   string(report.Status),
			"Records":  report.TotalRecords,
			"Features": strings.Join(report.FeaturesUsed, ", "),
		},
	}
	for _, cs := range report.ClusterStats {
		desc := "no distinguishing characteristics"
		if len(cs.Characteristics) > 0 {
			desc = strings.Join(cs.Characteristics, "; ")
		}
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        fmt.Sprintf("Segment %d", cs.ClusterID),
			Value:       fmt.Sprintf("%d records (%.2f%%)", cs.Size, cs.Percentage),
			Description: desc,
		})
	}

	return &domain.Report{
		Title:    "Transaction Segmentation",
		Sections: []domain.ReportSection{section},
	}
}

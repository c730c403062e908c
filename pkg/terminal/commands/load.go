package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type LoadCmd struct {
	configPath string
	file       string
	factory    RuntimeFactory
}

func NewLoadCmd(factory RuntimeFactory) *cobra.Command {
	lc := &LoadCmd{factory: factory}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Ingest financial records from a JSON-lines file",
		RunE:  lc.run,
	}

	cmd.Flags().StringVar(&lc.configPath, "config", "", "Path to the configuration file")
	cmd.Flags().StringVar(&lc.file, "file", "", "JSON-lines file to ingest")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (lc *LoadCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	rt, err := lc.factory(ctx, lc.configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	count, err := rt.Loader.LoadFile(ctx, lc.file)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", lc.file, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d records from %s\n", count, lc.file)
	return nil
}

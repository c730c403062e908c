package terminal

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/de-tools/ledger-atlas/pkg/terminal/commands"
	"github.com/de-tools/ledger-atlas/pkg/terminal/export"
)

// CLI represents the command-line interface
type CLI struct {
	factory  commands.RuntimeFactory
	reporter *export.Reporter
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Factory commands.RuntimeFactory
	Output  io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		factory:  opts.Factory,
		reporter: export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.ExecuteContext(context.Background())
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger-atlas",
		Short: "Financial records analytics tool",
	}

	cmd.AddCommand(commands.NewKPIsCmd(cli.factory, cli.reporter))
	cmd.AddCommand(commands.NewOutliersCmd(cli.factory, cli.reporter))
	cmd.AddCommand(commands.NewTrendsCmd(cli.factory, cli.reporter))
	cmd.AddCommand(commands.NewSegmentsCmd(cli.factory, cli.reporter))
	cmd.AddCommand(commands.NewHistogramCmd(cli.factory, cli.reporter))
	cmd.AddCommand(commands.NewLoadCmd(cli.factory))

	return cmd
}

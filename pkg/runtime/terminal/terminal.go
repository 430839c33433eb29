package terminal

import (
	"errors"
	"io"
	"os"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/de-tools/scan-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/scan-atlas/pkg/services/command"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	runner  command.Runner
	output  io.Writer
	rootCmd *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Runner command.Runner
	Output io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Runner == nil {
		opts.Runner = command.NewRunner()
	}

	cli := &CLI{
		runner: opts.Runner,
		output: opts.Output,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "scan-atlas",
		Short:         "IaC scan orchestrator",
		Long:          "Scans Infrastructure-as-Code manifests by orchestrating external static-analysis tools.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Unknown flags and malformed values are usage errors, exit code 2.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &domain.ErrConfiguration{Key: "flags", Msg: err.Error()}
	})

	cmd.AddCommand(commands.NewScanCmd(cli.runner, cli.output))
	cmd.AddCommand(commands.NewToolsCmd(cli.runner, cli.output))
	cmd.AddCommand(commands.NewVersionCmd(cli.output))

	return cmd
}

// ExitCode maps an Execute error onto the process exit code contract:
// 0 success, 2 configuration/usage error, 1 everything else fatal.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cfgErr *domain.ErrConfiguration
	if errors.As(err, &cfgErr) {
		return 2
	}
	return 1
}

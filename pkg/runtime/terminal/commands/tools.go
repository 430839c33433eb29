package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/de-tools/scan-atlas/pkg/services/command"
	"github.com/de-tools/scan-atlas/pkg/services/tools"
	"github.com/spf13/cobra"
)

var knownTools = []domain.Tool{
	domain.ToolCheckov,
	domain.ToolTerrascan,
	domain.ToolTFSec,
	domain.ToolTFLint,
	domain.ToolTerraformFmt,
	domain.ToolKustomize,
}

type ToolsCmd struct {
	runner  command.Runner
	out     io.Writer
	install bool
}

func NewToolsCmd(runner command.Runner, out io.Writer) *cobra.Command {
	tc := &ToolsCmd{runner: runner, out: out}
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Check availability of the external tools",
		RunE:  tc.run,
	}

	cmd.Flags().BoolVar(&tc.install, "install", false, "Install missing tools via the detected package manager")

	return cmd
}

func (tc *ToolsCmd) run(cmd *cobra.Command, _ []string) error {
	logger := newRunLogger(tc.out, "INFO")
	ctx := logger.WithContext(cmd.Context())

	checker := tools.NewChecker(tc.runner)

	for _, tool := range knownTools {
		spec, ok := tools.Lookup(tool)
		if !ok {
			continue
		}

		if tc.install {
			if err := checker.Ensure(ctx, tool); err != nil {
				var unsupported *domain.ErrUnsupportedPlatform
				if errors.As(err, &unsupported) {
					return err
				}
				fmt.Fprintf(tc.out, "%-20s unavailable (%v)\n", tool, err)
				continue
			}
			fmt.Fprintf(tc.out, "%-20s available\n", tool)
			continue
		}

		if _, err := tc.runner.LookPath(spec.Binary); err != nil {
			fmt.Fprintf(tc.out, "%-20s missing (binary %s)\n", tool, spec.Binary)
			continue
		}
		fmt.Fprintf(tc.out, "%-20s available\n", tool)
	}

	return nil
}

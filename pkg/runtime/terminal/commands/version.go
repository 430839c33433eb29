package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

func NewVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scan-atlas version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(out, "scan-atlas %s\n", Version)
		},
	}
}

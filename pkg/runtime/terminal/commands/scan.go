package commands

import (
	"io"
	"strings"

	"github.com/de-tools/scan-atlas/pkg/services/command"
	"github.com/de-tools/scan-atlas/pkg/services/config"
	"github.com/de-tools/scan-atlas/pkg/services/orchestrator"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type ScanCmd struct {
	runner command.Runner
	out    io.Writer
}

func NewScanCmd(runner command.Runner, out io.Writer) *cobra.Command {
	sc := &ScanCmd{runner: runner, out: out}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan IaC manifests with the enabled external tools",
		RunE:  sc.run,
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func (sc *ScanCmd) run(cmd *cobra.Command, _ []string) error {
	resolver, err := config.NewResolver(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := resolver.Resolve()
	if err != nil {
		return err
	}

	logger := newRunLogger(sc.out, cfg.LogLevel)
	ctx := logger.WithContext(cmd.Context())

	logger.Debug().
		Str("run_id", cfg.RunID).
		Str("project", cfg.Project).
		Str("target", cfg.Target).
		Str("render_mode", string(cfg.RenderMode)).
		Msg("configuration resolved")

	record, err := orchestrator.New(cfg, sc.runner, orchestrator.Dependencies{}).Run(ctx)
	if err != nil {
		return err
	}

	for _, res := range record.Results {
		logger.Info().
			Str("tool", string(res.Tool)).
			Str("status", string(res.Status)).
			Int("exit_code", res.ExitCode).
			Int("findings", res.Counts.Total).
			Msg("result")
	}

	// The orchestrator soft-fails on policy findings and tool crashes:
	// its own exit code reflects operational success only.
	if record.Failed() {
		logger.Warn().Msg("one or more tools failed; see report for details")
	}

	return nil
}

func newRunLogger(w io.Writer, level string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = zerolog.DebugLevel
	case "WARNING":
		lvl = zerolog.WarnLevel
	case "ERROR":
		lvl = zerolog.ErrorLevel
	case "CRITICAL":
		lvl = zerolog.FatalLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

package scan

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/de-tools/scan-atlas/pkg/services/command"
	"github.com/rs/zerolog"
)

// Execution pairs the normalized ScanResult with the raw captured output
// the report writer persists.
type Execution struct {
	Result domain.ScanResult
	Stdout []byte
	Stderr []byte
}

// Runner executes scanner invocations sequentially: each subprocess runs to
// completion before the next starts.
type Runner struct {
	runner command.Runner
	cfg    domain.ScanConfig
}

func NewRunner(runner command.Runner, cfg domain.ScanConfig) *Runner {
	return &Runner{runner: runner, cfg: cfg}
}

// Run spawns one scanner and normalizes its outcome. A policy-finding exit
// code is not a failure; a crash or a timeout is.
func (r *Runner) Run(ctx context.Context, inv Invocation) Execution {
	logger := zerolog.Ctx(ctx)

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	res, err := r.runner.Run(ctx, inv.Binary, inv.Args...)

	result := domain.ScanResult{
		Tool:     inv.Tool,
		ExitCode: res.ExitCode,
		Duration: res.Duration,
	}

	if err != nil {
		result.Status = domain.StatusFailed
		result.Detail = (&domain.ErrScanExecution{Tool: inv.Tool, Err: err}).Error()
		logger.Error().Str("tool", string(inv.Tool)).Err(err).Msg("scanner crashed")
		return Execution{Result: result, Stdout: res.Stdout, Stderr: res.Stderr}
	}

	result.Status = inv.Status(res.ExitCode)
	if result.Status == domain.StatusWithFindings {
		result.Counts = parseCounts(inv.Tool, res.Stdout)
		logger.Warn().
			Str("tool", string(inv.Tool)).
			Int("exit_code", res.ExitCode).
			Msg("scanner completed with findings")
	} else if result.Status == domain.StatusFailed {
		result.Detail = string(res.Stderr)
		logger.Error().
			Str("tool", string(inv.Tool)).
			Int("exit_code", res.ExitCode).
			Msg("scanner failed")
	} else {
		logger.Info().
			Str("tool", string(inv.Tool)).
			Dur("duration", res.Duration).
			Msg("scanner completed")
	}

	return Execution{Result: result, Stdout: res.Stdout, Stderr: res.Stderr}
}

// parseCounts extracts severity counts from tools whose stdout is JSON.
// Best effort: scanners that write reports to files are counted later by
// the report writer.
func parseCounts(tool domain.Tool, stdout []byte) domain.SeverityCounts {
	var counts domain.SeverityCounts

	severities := func(items []string) {
		for _, s := range items {
			switch domain.Severity(s) {
			case domain.SeverityCritical:
				counts.Critical++
			case domain.SeverityHigh:
				counts.High++
			case domain.SeverityMedium:
				counts.Medium++
			case domain.SeverityLow:
				counts.Low++
			}
			counts.Total++
		}
	}

	switch tool {
	case domain.ToolTFSec:
		var report struct {
			Results []struct {
				Severity string `json:"severity"`
			} `json:"results"`
		}
		if err := json.Unmarshal(stdout, &report); err != nil {
			return counts
		}
		items := make([]string, 0, len(report.Results))
		for _, r := range report.Results {
			items = append(items, r.Severity)
		}
		severities(items)

	case domain.ToolTerrascan:
		var report struct {
			Results struct {
				Violations []struct {
					Severity string `json:"severity"`
				} `json:"violations"`
			} `json:"results"`
		}
		if err := json.Unmarshal(stdout, &report); err != nil {
			return counts
		}
		items := make([]string, 0, len(report.Results.Violations))
		for _, v := range report.Results.Violations {
			items = append(items, strings.ToUpper(v.Severity))
		}
		severities(items)
	}

	return counts
}

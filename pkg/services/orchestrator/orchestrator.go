package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/de-tools/scan-atlas/pkg/services/command"
	"github.com/de-tools/scan-atlas/pkg/services/discovery"
	"github.com/de-tools/scan-atlas/pkg/services/render"
	"github.com/de-tools/scan-atlas/pkg/services/report"
	"github.com/de-tools/scan-atlas/pkg/services/scan"
	"github.com/de-tools/scan-atlas/pkg/services/tools"
	"github.com/rs/zerolog"
)

// ToolChecker resolves tool availability, installing what is missing.
type ToolChecker interface {
	Ensure(ctx context.Context, tool domain.Tool) error
	State(tool domain.Tool) tools.State
}

// Renderer flattens an overlay directory into a single manifest.
type Renderer interface {
	Render(ctx context.Context, target string) (domain.RenderedManifest, error)
}

// ScanExecutor runs one scanner invocation to completion.
type ScanExecutor interface {
	Run(ctx context.Context, inv scan.Invocation) scan.Execution
}

// ReportWriter persists the run artifacts.
type ReportWriter interface {
	Write(ctx context.Context, record *domain.RunRecord, execs []scan.Execution) ([]string, error)
}

// Orchestrator drives one run: resolve tools, optionally render, scan
// sequentially, write reports. Components only share the resolved config
// and the files each one produces.
type Orchestrator struct {
	cfg      domain.ScanConfig
	runner   command.Runner
	checker  ToolChecker
	renderer Renderer
	executor ScanExecutor
	writer   ReportWriter
	clock    func() time.Time
}

// Dependencies lets tests swap any stage; zero fields fall back to the
// real implementations built on the given command runner.
type Dependencies struct {
	Checker  ToolChecker
	Renderer Renderer
	Executor ScanExecutor
	Writer   ReportWriter
	Clock    func() time.Time
}

func New(cfg domain.ScanConfig, runner command.Runner, deps Dependencies) *Orchestrator {
	if deps.Checker == nil {
		deps.Checker = tools.NewChecker(runner)
	}
	if deps.Renderer == nil {
		deps.Renderer = render.NewRenderer(runner)
	}
	if deps.Executor == nil {
		deps.Executor = scan.NewRunner(runner, cfg)
	}
	if deps.Writer == nil {
		deps.Writer = report.NewWriter(cfg)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Orchestrator{
		cfg:      cfg,
		runner:   runner,
		checker:  deps.Checker,
		renderer: deps.Renderer,
		executor: deps.Executor,
		writer:   deps.Writer,
		clock:    deps.Clock,
	}
}

// Run executes the full pipeline. The returned error reflects only the
// orchestrator's own operational success: scanners reporting policy
// violations never make it non-nil.
func (o *Orchestrator) Run(ctx context.Context) (domain.RunRecord, error) {
	logger := zerolog.Ctx(ctx)

	record := domain.RunRecord{
		RunID:     o.cfg.RunID,
		Project:   o.cfg.Project,
		Target:    o.cfg.Target,
		StartedAt: o.clock(),
	}

	info, err := os.Stat(o.cfg.Target)
	if err != nil || !info.IsDir() {
		return record, fmt.Errorf("target directory %q does not exist or is not a directory", o.cfg.Target)
	}

	if o.cfg.DryRun {
		if err := o.dryRun(ctx); err != nil {
			return record, err
		}
		record.FinishedAt = o.clock()
		return record, nil
	}

	unavailable, err := o.ensureTools(ctx)
	if err != nil {
		return record, err
	}

	scanInput := o.cfg.Target
	if o.cfg.RenderMode != domain.RenderModeNone {
		manifest, err := o.renderer.Render(ctx, o.cfg.Target)
		if err != nil {
			return record, err
		}
		record.RenderedTo = manifest.Path
		scanInput = manifest.ScanInput()

		if o.cfg.RenderMode == domain.RenderModeOnly {
			logger.Info().Str("output", manifest.ScanInput()).Msg("render-only mode complete")
			record.FinishedAt = o.clock()
			return record, nil
		}
	}

	cfg := o.cfg
	cfg.PlanJSON = o.resolvePlanJSON(ctx)

	execs := o.runScanners(ctx, cfg, scanInput, unavailable)

	if _, err := o.writer.Write(ctx, &record, execs); err != nil {
		return record, err
	}

	if o.cfg.Cleanup && record.RenderedTo != "" {
		if err := os.RemoveAll(render.OutputDir); err != nil {
			logger.Warn().Err(err).Msg("cleanup of rendered output failed")
		}
	}

	record.FinishedAt = o.clock()
	return record, nil
}

// dryRun lists the would-be scan set and the exact commands without
// spawning a single subprocess.
func (o *Orchestrator) dryRun(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	files, err := discovery.FindYAMLFiles(o.cfg.Target)
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}

	logger.Info().Msg("[DRY RUN] YAML files discovered:")
	for _, f := range files {
		logger.Info().Msgf("  %s", f)
	}
	logger.Info().Msgf("[DRY RUN] Total: %d file(s)", len(files))

	for _, tool := range o.cfg.EnabledScanners() {
		inv, err := scan.BuildInvocation(o.cfg, tool, o.cfg.Target)
		if err != nil {
			return err
		}
		logger.Info().Msgf("[DRY RUN] would run: %s", inv)
	}
	return nil
}

// ensureTools probes and installs every tool this run needs. Install
// failures are per-tool and non-fatal; an unsupported platform is fatal.
func (o *Orchestrator) ensureTools(ctx context.Context) (map[domain.Tool]error, error) {
	logger := zerolog.Ctx(ctx)

	required := make([]domain.Tool, 0, 7)
	if o.cfg.RenderMode != domain.RenderModeNone {
		required = append(required, domain.ToolKustomize)
	}
	required = append(required, o.cfg.EnabledScanners()...)

	unavailable := make(map[domain.Tool]error)
	for _, tool := range required {
		err := o.checker.Ensure(ctx, tool)
		if err == nil {
			continue
		}
		var unsupported *domain.ErrUnsupportedPlatform
		if errors.As(err, &unsupported) {
			return nil, err
		}
		if tool == domain.ToolKustomize {
			// Rendering was explicitly requested; nothing downstream
			// makes sense without it.
			return nil, err
		}
		logger.Warn().Str("tool", string(tool)).Err(err).Msg("tool unavailable")
		unavailable[tool] = err
	}
	return unavailable, nil
}

// resolvePlanJSON converts a binary Terraform plan into the JSON form the
// scanners can consume. Conversion failures degrade to scanning the raw
// sources: the plan flags are an optimization, not a gate.
func (o *Orchestrator) resolvePlanJSON(ctx context.Context) string {
	if o.cfg.PlanJSON != "" || o.cfg.PlanFile == "" || o.runner == nil {
		return o.cfg.PlanJSON
	}

	logger := zerolog.Ctx(ctx)

	res, err := o.runner.Run(ctx, "terraform", "show", "-json", o.cfg.PlanFile)
	if err != nil || res.ExitCode != 0 {
		logger.Warn().Str("planfile", o.cfg.PlanFile).Err(err).
			Int("exit_code", res.ExitCode).
			Msg("terraform show failed, scanning raw sources instead")
		return ""
	}

	if err := os.MkdirAll(o.cfg.ScanOutput, 0o755); err != nil {
		logger.Warn().Err(err).Msg("cannot stage plan JSON, scanning raw sources instead")
		return ""
	}
	path := filepath.Join(o.cfg.ScanOutput, "plan.json")
	if err := os.WriteFile(path, res.Stdout, 0o644); err != nil {
		logger.Warn().Err(err).Msg("cannot stage plan JSON, scanning raw sources instead")
		return ""
	}
	return path
}

// runScanners executes each enabled scanner sequentially against input.
// A failure never stops the remaining scanners unless stop-on-error is set.
func (o *Orchestrator) runScanners(ctx context.Context, cfg domain.ScanConfig, input string, unavailable map[domain.Tool]error) []scan.Execution {
	var execs []scan.Execution
	halted := false

	for _, tool := range cfg.EnabledScanners() {
		if halted {
			execs = append(execs, scan.Execution{Result: domain.ScanResult{
				Tool:   tool,
				Status: domain.StatusSkipped,
				Detail: "skipped: stop-on-error",
			}})
			continue
		}

		if reason, missing := unavailable[tool]; missing || o.checker.State(tool) != tools.StateAvailable {
			detail := "skipped: tool unavailable"
			if reason != nil {
				detail = fmt.Sprintf("skipped: tool unavailable: %v", reason)
			}
			execs = append(execs, scan.Execution{Result: domain.ScanResult{
				Tool:   tool,
				Status: domain.StatusFailed,
				Detail: detail,
			}})
			if o.cfg.StopOnError {
				halted = true
			}
			continue
		}

		inv, err := scan.BuildInvocation(cfg, tool, input)
		if err != nil {
			execs = append(execs, scan.Execution{Result: domain.ScanResult{
				Tool:   tool,
				Status: domain.StatusFailed,
				Detail: err.Error(),
			}})
			continue
		}

		exec := o.executor.Run(ctx, inv)
		execs = append(execs, exec)

		if exec.Result.Status == domain.StatusFailed && o.cfg.StopOnError {
			halted = true
		}
	}

	return execs
}

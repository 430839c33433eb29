package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/de-tools/scan-atlas/pkg/services/command"
	"github.com/rs/zerolog"
)

// State tracks what the checker knows about a tool.
type State string

const (
	StateUnknown     State = "unknown"
	StateAvailable   State = "available"
	StateUnavailable State = "unavailable"
)

// Checker probes the PATH for each required tool and runs the platform's
// installer routine for the ones that are missing.
type Checker struct {
	runner command.Runner
	states map[domain.Tool]State
}

func NewChecker(runner command.Runner) *Checker {
	return &Checker{
		runner: runner,
		states: make(map[domain.Tool]State),
	}
}

// State returns what the checker currently knows about a tool.
func (c *Checker) State(tool domain.Tool) State {
	if s, ok := c.states[tool]; ok {
		return s
	}
	return StateUnknown
}

// Ensure transitions a tool from unknown to available or unavailable.
// A missing binary triggers the installer routine for the detected package
// manager; an installer failure marks the tool unavailable and is returned
// as ErrToolInstall so the caller can decide whether to continue.
// No detectable package manager is fatal for the whole run.
func (c *Checker) Ensure(ctx context.Context, tool domain.Tool) error {
	logger := zerolog.Ctx(ctx)

	spec, ok := Lookup(tool)
	if !ok {
		c.states[tool] = StateUnavailable
		return &domain.ErrToolInstall{Tool: tool, Err: fmt.Errorf("no spec for tool")}
	}

	if _, err := c.runner.LookPath(spec.Binary); err == nil {
		c.states[tool] = StateAvailable
		logger.Debug().Str("tool", string(tool)).Str("binary", spec.Binary).Msg("tool available")
		return nil
	}

	mgr, err := DetectPackageManager(c.runner)
	if err != nil {
		c.states[tool] = StateUnavailable
		return err
	}

	steps, ok := spec.Installers[mgr]
	if !ok {
		c.states[tool] = StateUnavailable
		return &domain.ErrToolInstall{Tool: tool, Err: fmt.Errorf("no installer for %s", mgr)}
	}

	logger.Info().Str("tool", string(tool)).Str("manager", string(mgr)).Msg("installing missing tool")
	for _, step := range steps {
		res, err := c.runner.Run(ctx, step.Name, step.Args...)
		if err != nil {
			c.states[tool] = StateUnavailable
			return &domain.ErrToolInstall{Tool: tool, Err: err}
		}
		if res.ExitCode != 0 {
			c.states[tool] = StateUnavailable
			return &domain.ErrToolInstall{
				Tool: tool,
				Err:  fmt.Errorf("%s exited %d: %s", step.Name, res.ExitCode, res.Stderr),
			}
		}
	}

	if _, err := c.runner.LookPath(spec.Binary); err != nil {
		c.states[tool] = StateUnavailable
		return &domain.ErrToolInstall{Tool: tool, Err: fmt.Errorf("binary %s still missing after install", spec.Binary)}
	}

	c.states[tool] = StateAvailable
	return nil
}

// EnsureAll runs Ensure for every tool and collects per-tool errors.
// An unsupported platform aborts immediately: no installer can ever run.
func (c *Checker) EnsureAll(ctx context.Context, toolList []domain.Tool) (map[domain.Tool]error, error) {
	failures := make(map[domain.Tool]error)
	for _, tool := range toolList {
		if err := c.Ensure(ctx, tool); err != nil {
			var unsupported *domain.ErrUnsupportedPlatform
			if errors.As(err, &unsupported) {
				return failures, err
			}
			failures[tool] = err
		}
	}
	return failures, nil
}

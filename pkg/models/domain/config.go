package domain

import "time"

type RenderMode string

const (
	RenderModeNone RenderMode = "none"
	RenderModeFull RenderMode = "render"
	RenderModeOnly RenderMode = "render-only"
)

// ScanConfig is the fully resolved configuration for one orchestrator run.
// It is built once by the config resolver and never mutated afterwards.
type ScanConfig struct {
	RunID           string
	Project         string
	Target          string
	PlanFile        string
	PlanJSON        string
	ScanOutput      string
	TerrascanOutput string
	Severity        Severity

	Fmt       bool
	Validate  bool
	TFLint    bool
	Checkov   bool
	Terrascan bool
	TFSec     bool

	Cleanup     bool
	RenderMode  RenderMode
	DryRun      bool
	Debug       bool
	LogLevel    string
	StopOnError bool
	Timeout     time.Duration
}

// EnabledScanners returns the scanner tools switched on by this config,
// in the fixed execution order.
func (c ScanConfig) EnabledScanners() []Tool {
	var enabled []Tool
	for _, t := range []struct {
		tool Tool
		on   bool
	}{
		{ToolTerraformFmt, c.Fmt},
		{ToolTerraformValidate, c.Validate},
		{ToolTFLint, c.TFLint},
		{ToolCheckov, c.Checkov},
		{ToolTerrascan, c.Terrascan},
		{ToolTFSec, c.TFSec},
	} {
		if t.on {
			enabled = append(enabled, t.tool)
		}
	}
	return enabled
}

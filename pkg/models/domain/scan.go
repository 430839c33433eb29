package domain

import "time"

// Tool identifies a logical external tool the orchestrator can invoke.
type Tool string

const (
	ToolCheckov           Tool = "checkov"
	ToolTerrascan         Tool = "terrascan"
	ToolTFSec             Tool = "tfsec"
	ToolTFLint            Tool = "tflint"
	ToolTerraformFmt      Tool = "terraform-fmt"
	ToolTerraformValidate Tool = "terraform-validate"
	ToolKustomize         Tool = "kustomize"
)

// ScanStatus is the normalized outcome of one tool invocation.
type ScanStatus string

const (
	StatusCompleted    ScanStatus = "completed"
	StatusWithFindings ScanStatus = "completed_with_findings"
	StatusFailed       ScanStatus = "failed"
	StatusSkipped      ScanStatus = "skipped"
)

type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// ScanResult records one tool invocation. Results are append-only and
// one-to-one with invoked tools; nothing beyond the written report files
// survives process exit.
type ScanResult struct {
	Tool       Tool           `json:"tool"`
	Status     ScanStatus     `json:"status"`
	ExitCode   int            `json:"exit_code"`
	StdoutPath string         `json:"stdout_path,omitempty"`
	StderrPath string         `json:"stderr_path,omitempty"`
	Duration   time.Duration  `json:"duration_ns"`
	Counts     SeverityCounts `json:"counts"`
	Detail     string         `json:"detail,omitempty"`
}

// RunRecord aggregates the results of one orchestrator invocation.
type RunRecord struct {
	RunID       string       `json:"run_id"`
	Project     string       `json:"project"`
	Target      string       `json:"target"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Results     []ScanResult `json:"results"`
	RenderedTo  string       `json:"rendered_to,omitempty"`
	ReportFiles []string     `json:"report_files,omitempty"`
}

// Failed reports whether any tool crashed (policy findings do not count).
func (r RunRecord) Failed() bool {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return true
		}
	}
	return false
}

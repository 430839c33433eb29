package api

import "time"

// Run is the wire representation of one orchestrator run.
type Run struct {
	RunID      string       `json:"run_id"`
	Project    string       `json:"project"`
	Target     string       `json:"target"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	RenderedTo string       `json:"rendered_to,omitempty"`
	Results    []ToolResult `json:"results"`
}

type ToolResult struct {
	Tool       string `json:"tool"`
	Status     string `json:"status"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	Findings   int    `json:"findings"`
	Critical   int    `json:"critical"`
	High       int    `json:"high"`
	Medium     int    `json:"medium"`
	Low        int    `json:"low"`
	Detail     string `json:"detail,omitempty"`
}

type ReportFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

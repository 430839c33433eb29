package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/de-tools/scan-atlas/pkg/services/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkovJSON = `{
  "results": {
    "failed_checks": [
      {
        "check_id": "CKV_K8S_21",
        "check_name": "The default namespace should not be used",
        "file_path": "/deploy.yaml",
        "resource": "Deployment.default.web",
        "severity": "HIGH",
        "guideline": "https://docs.example.com/ckv-k8s-21"
      },
      {
        "check_id": "CKV_K8S_8",
        "check_name": "Liveness Probe Should be Configured",
        "file_path": "/deploy.yaml",
        "resource": "Deployment.default.web",
        "severity": "LOW",
        "guideline": ""
      }
    ]
  },
  "summary": {
    "passed": 40,
    "failed": 2,
    "skipped": 1,
    "parsing_errors": 0,
    "resource_count": 3,
    "checkov_version": "3.2.0"
  }
}`

func testConfig(t *testing.T) domain.ScanConfig {
	out := t.TempDir()
	return domain.ScanConfig{
		RunID:           "run-1",
		Project:         "demo",
		Target:          ".",
		ScanOutput:      out,
		TerrascanOutput: filepath.Join(out, "terrascan"),
		Severity:        domain.SeverityLow,
	}
}

func checkovExecution() scan.Execution {
	return scan.Execution{
		Result: domain.ScanResult{
			Tool:     domain.ToolCheckov,
			Status:   domain.StatusCompleted,
			ExitCode: 0,
		},
		Stdout: []byte("checkov run output"),
	}
}

func TestWrite_RawOutputAndRunRecord(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg)

	record := domain.RunRecord{RunID: cfg.RunID, Project: cfg.Project}
	execs := []scan.Execution{
		{
			Result: domain.ScanResult{Tool: domain.ToolTFSec, Status: domain.StatusWithFindings, ExitCode: 1},
			Stdout: []byte(`{"results":[]}`),
			Stderr: []byte("warning: something"),
		},
	}

	written, err := w.Write(context.Background(), &record, execs)
	require.NoError(t, err)

	stdoutPath := filepath.Join(cfg.ScanOutput, "tfsec_stdout.log")
	stderrPath := filepath.Join(cfg.ScanOutput, "tfsec_stderr.log")
	assert.Contains(t, written, stdoutPath)
	assert.Contains(t, written, stderrPath)
	assert.Equal(t, stdoutPath, record.Results[0].StdoutPath)
	assert.Equal(t, stderrPath, record.Results[0].StderrPath)

	recordPath := filepath.Join(cfg.ScanOutput, "scan_results.json")
	data, err := os.ReadFile(recordPath)
	require.NoError(t, err)

	var persisted domain.RunRecord
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, "run-1", persisted.RunID)
	require.Len(t, persisted.Results, 1)
	assert.Equal(t, domain.StatusWithFindings, persisted.Results[0].Status)
}

func TestWrite_CheckovSummaryGenerated(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ScanOutput, "results_json.json"), []byte(checkovJSON), 0o644))

	w := NewWriter(cfg)
	w.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	record := domain.RunRecord{RunID: cfg.RunID}
	_, err := w.Write(context.Background(), &record, []scan.Execution{checkovExecution()})
	require.NoError(t, err)

	summaryPath := filepath.Join(cfg.ScanOutput, "CHECKOV_SUMMARY_20250601-120000.md")
	content, err := os.ReadFile(summaryPath)
	require.NoError(t, err)

	md := string(content)
	assert.Contains(t, md, "# Checkov Scan Summary")
	assert.Contains(t, md, "**Passed Checks:** 40")
	assert.Contains(t, md, "**Failed Checks:** 2")
	assert.Contains(t, md, "CKV_K8S_21")
	assert.Contains(t, md, "**Severity:** HIGH")
	assert.Contains(t, md, "[https://docs.example.com/ckv-k8s-21]")
	assert.Contains(t, md, "**Checkov Version:** 3.2.0")

	// Counts backfilled onto the checkov result, status reflects findings.
	require.Len(t, record.Results, 1)
	assert.Equal(t, domain.StatusWithFindings, record.Results[0].Status)
	assert.Equal(t, 2, record.Results[0].Counts.Total)
	assert.Equal(t, 1, record.Results[0].Counts.High)
	assert.Equal(t, 1, record.Results[0].Counts.Low)
}

func TestWrite_SummaryHonorsSeverityThreshold(t *testing.T) {
	cfg := testConfig(t)
	cfg.Severity = domain.SeverityHigh
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ScanOutput, "results_json.json"), []byte(checkovJSON), 0o644))

	w := NewWriter(cfg)

	record := domain.RunRecord{RunID: cfg.RunID}
	written, err := w.Write(context.Background(), &record, []scan.Execution{checkovExecution()})
	require.NoError(t, err)

	var summaryPath string
	for _, f := range written {
		if strings.Contains(f, "CHECKOV_SUMMARY_") {
			summaryPath = f
		}
	}
	require.NotEmpty(t, summaryPath)

	content, err := os.ReadFile(summaryPath)
	require.NoError(t, err)

	// The HIGH check is listed, the LOW one filtered out of the detail.
	assert.Contains(t, string(content), "CKV_K8S_21")
	assert.NotContains(t, string(content), "CKV_K8S_8")
}

func TestWrite_TerrascanOutputFile(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg)

	record := domain.RunRecord{RunID: cfg.RunID}
	execs := []scan.Execution{
		{
			Result: domain.ScanResult{Tool: domain.ToolTerrascan, Status: domain.StatusCompleted},
			Stdout: []byte(`{"results":{"violations":[]}}`),
		},
	}

	written, err := w.Write(context.Background(), &record, execs)
	require.NoError(t, err)
	assert.Contains(t, written, filepath.Join(cfg.TerrascanOutput, "terrascan_output.json"))
}

func TestWrite_OutputDirCreationIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg)

	record1 := domain.RunRecord{RunID: "first"}
	_, err := w.Write(context.Background(), &record1, nil)
	require.NoError(t, err)

	record2 := domain.RunRecord{RunID: "second"}
	_, err = w.Write(context.Background(), &record2, nil)
	require.NoError(t, err)
}

func TestWrite_MissingCheckovJSONIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg)

	record := domain.RunRecord{RunID: cfg.RunID}
	written, err := w.Write(context.Background(), &record, []scan.Execution{checkovExecution()})
	require.NoError(t, err)

	for _, f := range written {
		assert.NotContains(t, f, "CHECKOV_SUMMARY_")
	}
}

func TestParseCheckovReport_ArrayPayload(t *testing.T) {
	payload := "[" + checkovJSON + "," + checkovJSON + "]"

	report, err := ParseCheckovReport([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 80, report.Summary.Passed)
	assert.Equal(t, 4, report.Summary.Failed)
	assert.Len(t, report.Results.FailedChecks, 4)
	assert.Equal(t, "3.2.0", report.Summary.CheckovVersion)
}

func TestExplorer_RoundTrip(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg)

	record := domain.RunRecord{RunID: "run-9", Project: "demo"}
	_, err := w.Write(context.Background(), &record, nil)
	require.NoError(t, err)

	explorer := NewExplorer(cfg.ScanOutput)

	loaded, err := explorer.LatestRecord(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-9", loaded.RunID)

	files, err := explorer.ListReports(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "scan_results.json", files[0].Name)

	_, err = explorer.ReadReport(context.Background(), "../etc/passwd")
	require.Error(t, err)
}

package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/de-tools/scan-atlas/pkg/services/scan"
	"github.com/rs/zerolog"
)

const (
	resultsFileName   = "results_json.json"
	runRecordFileName = "scan_results.json"
	terrascanFileName = "terrascan_output.json"
)

// Writer persists everything a run produces: raw tool output, the Checkov
// Markdown summary and the machine-readable run record. Any write failure
// aborts the run, since the report is the orchestrator's sole product.
type Writer struct {
	cfg domain.ScanConfig

	// now is swappable so tests get stable file names.
	now func() time.Time
}

func NewWriter(cfg domain.ScanConfig) *Writer {
	return &Writer{cfg: cfg, now: time.Now}
}

// Write persists the run artifacts and returns the list of files written.
// Directory creation is idempotent.
func (w *Writer) Write(ctx context.Context, record *domain.RunRecord, execs []scan.Execution) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	if err := os.MkdirAll(w.cfg.ScanOutput, 0o755); err != nil {
		return nil, &domain.ErrReportWrite{Path: w.cfg.ScanOutput, Err: err}
	}

	var written []string

	for i := range execs {
		exec := &execs[i]
		tool := string(exec.Result.Tool)

		if len(exec.Stdout) > 0 {
			path := filepath.Join(w.cfg.ScanOutput, tool+"_stdout.log")
			if err := os.WriteFile(path, exec.Stdout, 0o644); err != nil {
				return written, &domain.ErrReportWrite{Path: path, Err: err}
			}
			exec.Result.StdoutPath = path
			written = append(written, path)
		}
		if len(exec.Stderr) > 0 {
			path := filepath.Join(w.cfg.ScanOutput, tool+"_stderr.log")
			if err := os.WriteFile(path, exec.Stderr, 0o644); err != nil {
				return written, &domain.ErrReportWrite{Path: path, Err: err}
			}
			exec.Result.StderrPath = path
			written = append(written, path)
		}

		if exec.Result.Tool == domain.ToolTerrascan && len(exec.Stdout) > 0 {
			if err := os.MkdirAll(w.cfg.TerrascanOutput, 0o755); err != nil {
				return written, &domain.ErrReportWrite{Path: w.cfg.TerrascanOutput, Err: err}
			}
			path := filepath.Join(w.cfg.TerrascanOutput, terrascanFileName)
			if err := os.WriteFile(path, exec.Stdout, 0o644); err != nil {
				return written, &domain.ErrReportWrite{Path: path, Err: err}
			}
			written = append(written, path)
		}

		record.Results = append(record.Results, exec.Result)
	}

	if w.ranCheckov(record) {
		path, err := w.writeCheckovSummary(record)
		if err != nil {
			return written, err
		}
		if path != "" {
			written = append(written, path)
			logger.Info().Str("summary", path).Msg("summary markdown generated")
		}
	}

	record.ReportFiles = written

	recordPath := filepath.Join(w.cfg.ScanOutput, runRecordFileName)
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return written, &domain.ErrReportWrite{Path: recordPath, Err: err}
	}
	if err := os.WriteFile(recordPath, payload, 0o644); err != nil {
		return written, &domain.ErrReportWrite{Path: recordPath, Err: err}
	}
	written = append(written, recordPath)

	logger.Info().Str("record", recordPath).Int("files", len(written)).Msg("report written")
	return written, nil
}

func (w *Writer) ranCheckov(record *domain.RunRecord) bool {
	for _, res := range record.Results {
		if res.Tool == domain.ToolCheckov && res.Status != domain.StatusSkipped && res.Status != domain.StatusFailed {
			return true
		}
	}
	return false
}

// writeCheckovSummary derives the Markdown summary from the JSON report
// Checkov wrote into the output directory, and backfills severity counts
// onto the checkov ScanResult. A missing or malformed JSON report is not
// fatal: the raw output already captured whatever Checkov produced.
func (w *Writer) writeCheckovSummary(record *domain.RunRecord) (string, error) {
	jsonPath := filepath.Join(w.cfg.ScanOutput, resultsFileName)
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", nil
	}

	report, err := ParseCheckovReport(data)
	if err != nil {
		return "", nil
	}

	for i := range record.Results {
		if record.Results[i].Tool == domain.ToolCheckov {
			record.Results[i].Counts = report.Counts()
			if report.Summary.Failed > 0 && record.Results[i].Status == domain.StatusCompleted {
				record.Results[i].Status = domain.StatusWithFindings
			}
		}
	}

	now := w.now()
	name := fmt.Sprintf("CHECKOV_SUMMARY_%s.md", now.Format("20060102-150405"))
	path := filepath.Join(w.cfg.ScanOutput, name)

	var buf bytes.Buffer
	if err := WriteSummary(&buf, report, w.cfg.Severity, now); err != nil {
		return "", &domain.ErrReportWrite{Path: path, Err: err}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", &domain.ErrReportWrite{Path: path, Err: err}
	}
	return path, nil
}

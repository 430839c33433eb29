package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
)

// CheckovReport mirrors the slice of Checkov's JSON output the summary
// consumes. Checkov emits a single object for one framework and an array
// when several frameworks ran.
type CheckovReport struct {
	Results struct {
		FailedChecks []CheckovCheck `json:"failed_checks"`
	} `json:"results"`
	Summary CheckovSummary `json:"summary"`
}

type CheckovCheck struct {
	CheckID   string `json:"check_id"`
	CheckName string `json:"check_name"`
	FilePath  string `json:"file_path"`
	Resource  string `json:"resource"`
	Severity  string `json:"severity"`
	Guideline string `json:"guideline"`
}

type CheckovSummary struct {
	Passed         int    `json:"passed"`
	Failed         int    `json:"failed"`
	Skipped        int    `json:"skipped"`
	ParsingErrors  int    `json:"parsing_errors"`
	ResourceCount  int    `json:"resource_count"`
	CheckovVersion string `json:"checkov_version"`
}

// ParseCheckovReport decodes a results_json.json payload.
func ParseCheckovReport(data []byte) (CheckovReport, error) {
	var report CheckovReport
	if err := json.Unmarshal(data, &report); err == nil {
		return report, nil
	}

	var reports []CheckovReport
	if err := json.Unmarshal(data, &reports); err != nil {
		return CheckovReport{}, fmt.Errorf("parse checkov report: %w", err)
	}

	merged := CheckovReport{}
	for _, r := range reports {
		merged.Results.FailedChecks = append(merged.Results.FailedChecks, r.Results.FailedChecks...)
		merged.Summary.Passed += r.Summary.Passed
		merged.Summary.Failed += r.Summary.Failed
		merged.Summary.Skipped += r.Summary.Skipped
		merged.Summary.ParsingErrors += r.Summary.ParsingErrors
		merged.Summary.ResourceCount += r.Summary.ResourceCount
		if merged.Summary.CheckovVersion == "" {
			merged.Summary.CheckovVersion = r.Summary.CheckovVersion
		}
	}
	return merged, nil
}

// Counts folds the failed checks into severity buckets.
func (r CheckovReport) Counts() domain.SeverityCounts {
	var counts domain.SeverityCounts
	for _, check := range r.Results.FailedChecks {
		switch domain.Severity(check.Severity) {
		case domain.SeverityCritical:
			counts.Critical++
		case domain.SeverityHigh:
			counts.High++
		case domain.SeverityMedium:
			counts.Medium++
		default:
			counts.Low++
		}
		counts.Total++
	}
	return counts
}

// FailedAtLeast returns the failed checks at or above the threshold.
// Checkov reports null severity on custom policies; those only surface
// under a LOW threshold.
func (r CheckovReport) FailedAtLeast(threshold domain.Severity) []CheckovCheck {
	var out []CheckovCheck
	for _, check := range r.Results.FailedChecks {
		if domain.Severity(check.Severity).AtLeast(threshold) {
			out = append(out, check)
		}
	}
	return out
}

var summaryTmpl = template.Must(template.New("summary").Parse(`# Checkov Scan Summary

## Scan Metadata
- **Timestamp:** {{.Timestamp}}
- **Passed Checks:** {{.Summary.Passed}}
- **Failed Checks:** {{.Summary.Failed}}
- **Skipped Checks:** {{.Summary.Skipped}}
- **Parsing Errors:** {{.Summary.ParsingErrors}}
- **Resources Scanned:** {{.Summary.ResourceCount}}
- **Checkov Version:** {{.Version}}
{{if .Failed}}
## Failed Checks Detail
{{range .Failed}}
### {{if .CheckID}}{{.CheckID}}{{else}}UNKNOWN{{end}} - {{if .CheckName}}{{.CheckName}}{{else}}Unnamed Check{{end}}
- **File:** ` + "`{{if .FilePath}}{{.FilePath}}{{else}}unknown{{end}}`" + `
- **Resource:** ` + "`{{if .Resource}}{{.Resource}}{{else}}unknown{{end}}`" + `
- **Severity:** {{if .Severity}}{{.Severity}}{{else}}N/A{{end}}
{{- if .Guideline}}
- **Guideline:** [{{.Guideline}}]({{.Guideline}})
{{- end}}
{{end}}{{end}}`))

type summaryData struct {
	Timestamp string
	Summary   CheckovSummary
	Version   string
	Failed    []CheckovCheck
}

// WriteSummary renders the human-readable Markdown summary for a Checkov
// report, listing only the failed checks at or above the threshold.
func WriteSummary(w io.Writer, report CheckovReport, threshold domain.Severity, now time.Time) error {
	version := report.Summary.CheckovVersion
	if version == "" {
		version = "N/A"
	}
	return summaryTmpl.Execute(w, summaryData{
		Timestamp: now.Format("2006-01-02 15:04:05"),
		Summary:   report.Summary,
		Version:   version,
		Failed:    report.FailedAtLeast(threshold),
	})
}

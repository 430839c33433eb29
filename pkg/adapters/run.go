package adapters

import (
	"time"

	"github.com/de-tools/scan-atlas/pkg/models/api"
	"github.com/de-tools/scan-atlas/pkg/models/domain"
)

func MapDomainRunToAPI(record domain.RunRecord) api.Run {
	results := make([]api.ToolResult, 0, len(record.Results))
	for _, res := range record.Results {
		results = append(results, MapDomainResultToAPI(res))
	}
	return api.Run{
		RunID:      record.RunID,
		Project:    record.Project,
		Target:     record.Target,
		StartedAt:  record.StartedAt,
		FinishedAt: record.FinishedAt,
		RenderedTo: record.RenderedTo,
		Results:    results,
	}
}

func MapDomainResultToAPI(res domain.ScanResult) api.ToolResult {
	return api.ToolResult{
		Tool:       string(res.Tool),
		Status:     string(res.Status),
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
		Findings:   res.Counts.Total,
		Critical:   res.Counts.Critical,
		High:       res.Counts.High,
		Medium:     res.Counts.Medium,
		Low:        res.Counts.Low,
		Detail:     res.Detail,
	}
}

func MapDomainReportFileToAPI(f domain.ReportFile) api.ReportFile {
	return api.ReportFile{
		Name:     f.Name,
		Size:     f.Size,
		Modified: f.Modified.Truncate(time.Second),
	}
}

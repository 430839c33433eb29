package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
)

// Explorer reads back the artifacts a previous run wrote, for the report
// server. It never writes.
type Explorer struct {
	dir string
}

func NewExplorer(dir string) *Explorer {
	return &Explorer{dir: dir}
}

// LatestRecord loads the machine-readable run record of the last run.
func (e *Explorer) LatestRecord(_ context.Context) (domain.RunRecord, error) {
	var record domain.RunRecord

	data, err := os.ReadFile(filepath.Join(e.dir, runRecordFileName))
	if err != nil {
		return record, fmt.Errorf("no run record in %s: %w", e.dir, err)
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("parse run record: %w", err)
	}
	return record, nil
}

// ListReports enumerates the artifacts in the output directory.
func (e *Explorer) ListReports(_ context.Context) ([]domain.ReportFile, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return nil, fmt.Errorf("read report dir %s: %w", e.dir, err)
	}

	var files []domain.ReportFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, domain.ReportFile{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	return files, nil
}

// ReadReport returns one artifact's content. Names are confined to the
// output directory.
func (e *Explorer) ReadReport(_ context.Context, name string) ([]byte, error) {
	if strings.Contains(name, "..") || strings.ContainsRune(name, os.PathSeparator) {
		return nil, fmt.Errorf("invalid report name %q", name)
	}
	return os.ReadFile(filepath.Join(e.dir, name))
}

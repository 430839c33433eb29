package domain

import "time"

// ReportFile describes one artifact in the scan output directory.
type ReportFile struct {
	Name     string
	Size     int64
	Modified time.Time
}

package domain

import (
	"fmt"
	"strings"
)

// Severity is the threshold passed down to scanners that support one.
// Values mirror the levels Checkov and tfsec report.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity normalizes a user-supplied severity string.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToUpper(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityCritical:
		return SeverityCritical, nil
	}
	return "", fmt.Errorf("unknown severity %q (expected LOW, MEDIUM, HIGH or CRITICAL)", s)
}

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// AtLeast reports whether s meets the given threshold. Unknown severities
// (scanners sometimes emit null) never meet a threshold above LOW.
func (s Severity) AtLeast(threshold Severity) bool {
	rank, ok := severityRank[Severity(strings.ToUpper(string(s)))]
	if !ok {
		return threshold == SeverityLow
	}
	return rank >= severityRank[threshold]
}

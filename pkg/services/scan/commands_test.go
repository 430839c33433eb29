package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() domain.ScanConfig {
	return domain.ScanConfig{
		ScanOutput:      "codescan_report",
		TerrascanOutput: "codescan_report/terrascan",
		Severity:        domain.SeverityLow,
	}
}

func TestBuildInvocation_CheckovDirectory(t *testing.T) {
	target := t.TempDir()

	inv, err := BuildInvocation(baseConfig(), domain.ToolCheckov, target)
	require.NoError(t, err)

	assert.Equal(t, "checkov", inv.Binary)
	assert.Contains(t, inv.Args, "--soft-fail")
	assert.Contains(t, inv.Args, "--directory")
	assert.Contains(t, inv.Args, target)
	assert.Contains(t, inv.Args, "kubernetes")
	assert.NotContains(t, inv.Args, "--file")
}

func TestBuildInvocation_CheckovRenderedFile(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("kind: Pod"), 0o644))

	inv, err := BuildInvocation(baseConfig(), domain.ToolCheckov, manifest)
	require.NoError(t, err)

	assert.Contains(t, inv.Args, "--file")
	assert.Contains(t, inv.Args, manifest)
	assert.NotContains(t, inv.Args, "--directory")
}

func TestBuildInvocation_CheckovPlanJSON(t *testing.T) {
	cfg := baseConfig()
	cfg.PlanJSON = "plan.json"

	inv, err := BuildInvocation(cfg, domain.ToolCheckov, t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, inv.Args, "terraform_plan")
	assert.Contains(t, inv.Args, "plan.json")
}

func TestBuildInvocation_SeverityThreshold(t *testing.T) {
	cfg := baseConfig()
	cfg.Severity = domain.SeverityHigh

	inv, err := BuildInvocation(cfg, domain.ToolTFSec, "target")
	require.NoError(t, err)
	assert.Contains(t, inv.Args, "--minimum-severity")
	assert.Contains(t, inv.Args, "HIGH")

	inv, err = BuildInvocation(cfg, domain.ToolTerrascan, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, inv.Args, "--severity")
	assert.Contains(t, inv.Args, "HIGH")
}

func TestBuildInvocation_UnknownTool(t *testing.T) {
	_, err := BuildInvocation(baseConfig(), domain.Tool("sonar"), "target")
	require.Error(t, err)
}

func TestInvocation_StatusNormalization(t *testing.T) {
	tests := []struct {
		name     string
		tool     domain.Tool
		exitCode int
		want     domain.ScanStatus
	}{
		{"checkov clean", domain.ToolCheckov, 0, domain.StatusCompleted},
		{"checkov findings", domain.ToolCheckov, 1, domain.StatusWithFindings},
		{"checkov crash", domain.ToolCheckov, 2, domain.StatusFailed},
		{"terrascan violations", domain.ToolTerrascan, 3, domain.StatusWithFindings},
		{"terrascan crash", domain.ToolTerrascan, 1, domain.StatusFailed},
		{"tflint issues", domain.ToolTFLint, 2, domain.StatusWithFindings},
		{"tflint crash", domain.ToolTFLint, 1, domain.StatusFailed},
		{"fmt diffs", domain.ToolTerraformFmt, 3, domain.StatusWithFindings},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inv, err := BuildInvocation(baseConfig(), tc.tool, t.TempDir())
			require.NoError(t, err)
			assert.Equal(t, tc.want, inv.Status(tc.exitCode))
		})
	}
}

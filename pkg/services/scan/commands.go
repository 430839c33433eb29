package scan

import (
	"fmt"
	"os"
	"strings"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
)

// Invocation is a fully constructed scanner command, built from the resolved
// config before anything is spawned. Dry-run mode prints these verbatim.
type Invocation struct {
	Tool   domain.Tool
	Binary string
	Args   []string

	// findingCodes are the tool's "policy violations found" exit codes.
	// They normalize to completed_with_findings, never to failed.
	findingCodes map[int]bool
}

func (inv Invocation) String() string {
	return inv.Binary + " " + strings.Join(inv.Args, " ")
}

// Status normalizes a tool exit code: 0 is clean, a documented finding code
// means violations were reported, anything else is a crash.
func (inv Invocation) Status(exitCode int) domain.ScanStatus {
	switch {
	case exitCode == 0:
		return domain.StatusCompleted
	case inv.findingCodes[exitCode]:
		return domain.StatusWithFindings
	default:
		return domain.StatusFailed
	}
}

// BuildInvocation constructs the argv for one scanner against the given
// input path (the raw target directory or a rendered manifest file).
func BuildInvocation(cfg domain.ScanConfig, tool domain.Tool, input string) (Invocation, error) {
	switch tool {
	case domain.ToolCheckov:
		return checkovInvocation(cfg, input), nil
	case domain.ToolTerrascan:
		return terrascanInvocation(cfg, input), nil
	case domain.ToolTFSec:
		return tfsecInvocation(cfg, input), nil
	case domain.ToolTFLint:
		return tflintInvocation(input), nil
	case domain.ToolTerraformFmt:
		return terraformFmtInvocation(input), nil
	case domain.ToolTerraformValidate:
		return terraformValidateInvocation(input), nil
	}
	return Invocation{}, fmt.Errorf("no invocation for tool %q", tool)
}

func checkovInvocation(cfg domain.ScanConfig, input string) Invocation {
	args := []string{"--quiet", "--compact", "--soft-fail"}

	if cfg.PlanJSON != "" {
		args = append(args, "--framework", "terraform_plan", "--file", cfg.PlanJSON)
	} else {
		args = append(args, "--framework", "kubernetes")
		if info, err := os.Stat(input); err == nil && !info.IsDir() {
			args = append(args, "--file", input)
		} else {
			args = append(args, "--directory", input)
		}
	}

	args = append(args, "--output", "json", "--output-file-path", cfg.ScanOutput)

	return Invocation{
		Tool:   domain.ToolCheckov,
		Binary: "checkov",
		Args:   args,
		// --soft-fail keeps the exit code at 0; 1 still means findings
		// when a local config overrides the soft-fail behavior.
		findingCodes: map[int]bool{1: true},
	}
}

func terrascanInvocation(cfg domain.ScanConfig, input string) Invocation {
	args := []string{"scan", "-o", "json", "--severity", string(cfg.Severity)}
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		args = append(args, "--iac-file", input)
	} else {
		args = append(args, "--iac-dir", input)
	}

	return Invocation{
		Tool:         domain.ToolTerrascan,
		Binary:       "terrascan",
		Args:         args,
		findingCodes: map[int]bool{3: true, 4: true, 5: true},
	}
}

func tfsecInvocation(cfg domain.ScanConfig, input string) Invocation {
	return Invocation{
		Tool:   domain.ToolTFSec,
		Binary: "tfsec",
		Args: []string{
			input,
			"--format", "json",
			"--minimum-severity", string(cfg.Severity),
			"--no-color",
		},
		findingCodes: map[int]bool{1: true},
	}
}

func tflintInvocation(input string) Invocation {
	return Invocation{
		Tool:         domain.ToolTFLint,
		Binary:       "tflint",
		Args:         []string{"--chdir", input, "--format", "json"},
		findingCodes: map[int]bool{2: true},
	}
}

func terraformFmtInvocation(input string) Invocation {
	return Invocation{
		Tool:         domain.ToolTerraformFmt,
		Binary:       "terraform",
		Args:         []string{"fmt", "-check", "-recursive", input},
		findingCodes: map[int]bool{3: true},
	}
}

func terraformValidateInvocation(input string) Invocation {
	return Invocation{
		Tool:         domain.ToolTerraformValidate,
		Binary:       "terraform",
		Args:         []string{"-chdir=" + input, "validate", "-no-color"},
		findingCodes: map[int]bool{1: true},
	}
}

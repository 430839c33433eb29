package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SCAN_ATLAS"

// Keys double as flag names and (upper-cased, dash-to-underscore)
// environment variable suffixes.
const (
	KeyProject         = "project"
	KeyTarget          = "target"
	KeyPlanFile        = "planfile"
	KeyPlanJSON        = "planjson"
	KeyScanOutput      = "scanoutput"
	KeyTerrascanOutput = "terrascanoutput"
	KeySeverity        = "severity"
	KeyFmt             = "fmt"
	KeyValidate        = "validate"
	KeyTFLint          = "tflint"
	KeyCheckov         = "checkov"
	KeyTerrascan       = "terrascan"
	KeyTFSec           = "tfsec"
	KeyCleanup         = "cleanup"
	KeyRender          = "render"
	KeyRenderOnly      = "render-only"
	KeyDryRun          = "dry-run"
	KeyDebug           = "debug"
	KeyStopOnError     = "stop-on-error"
	KeyTimeout         = "timeout"
	KeyLogLevel        = "log-level"
)

var boolKeys = []string{
	KeyFmt, KeyValidate, KeyTFLint, KeyCheckov, KeyTerrascan, KeyTFSec,
	KeyCleanup, KeyRender, KeyRenderOnly, KeyDryRun, KeyDebug, KeyStopOnError,
}

// RegisterFlags declares every orchestrator flag on the given set.
// Boolean flags are string-valued so that `--checkov true` works and
// anything other than true/false is rejected as a configuration error.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(KeyProject, "", "Project name (default: current directory name)")
	flags.String(KeyTarget, ".", "Directory containing the manifests to scan")
	flags.String(KeyPlanFile, "", "Terraform plan file to scan instead of raw sources")
	flags.String(KeyPlanJSON, "", "Terraform plan rendered as JSON")
	flags.String(KeyScanOutput, "codescan_report", "Directory for scan reports")
	flags.String(KeyTerrascanOutput, "", "Directory for Terrascan reports (default: <scanoutput>/terrascan)")
	flags.String(KeySeverity, "LOW", "Minimum severity reported in the summary (LOW|MEDIUM|HIGH|CRITICAL)")
	flags.Duration(KeyTimeout, 15*time.Minute, "Per-tool execution timeout (0 disables)")

	for _, key := range boolKeys {
		flags.String(key, "false", "Boolean (true|false)")
	}
	flags.Lookup(KeyFmt).Usage = "Run terraform fmt -check (true|false)"
	flags.Lookup(KeyValidate).Usage = "Run terraform validate (true|false)"
	flags.Lookup(KeyTFLint).Usage = "Run tflint (true|false)"
	flags.Lookup(KeyCheckov).Usage = "Run checkov (true|false)"
	flags.Lookup(KeyTerrascan).Usage = "Run terrascan (true|false)"
	flags.Lookup(KeyTFSec).Usage = "Run tfsec (true|false)"
	flags.Lookup(KeyCleanup).Usage = "Remove rendered artifacts after the run (true|false)"
	flags.Lookup(KeyRender).Usage = "Render overlays with kustomize before scanning (true|false)"
	flags.Lookup(KeyRenderOnly).Usage = "Render overlays and exit without scanning (true|false)"
	flags.Lookup(KeyDryRun).Usage = "List discovered files and commands without spawning anything (true|false)"
	flags.Lookup(KeyDebug).Usage = "Force DEBUG log level (true|false)"
	flags.Lookup(KeyStopOnError).Usage = "Abort on the first tool failure (true|false)"
}

// Resolver merges CLI flags, SCAN_ATLAS_* environment variables and
// compiled-in defaults, in that order of precedence.
type Resolver struct {
	v *viper.Viper
}

func NewResolver(flags *pflag.FlagSet) (*Resolver, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}

	// LOG_LEVEL is honored without the prefix for parity with the
	// scanner tooling this wraps.
	if err := v.BindEnv(KeyLogLevel, envPrefix+"_LOG_LEVEL", "LOG_LEVEL"); err != nil {
		return nil, err
	}
	v.SetDefault(KeyLogLevel, "INFO")

	return &Resolver{v: v}, nil
}

// Resolve validates and freezes the configuration for this run.
func (r *Resolver) Resolve() (domain.ScanConfig, error) {
	bools := make(map[string]bool, len(boolKeys))
	for _, key := range boolKeys {
		val, err := parseBool(key, r.v.GetString(key))
		if err != nil {
			return domain.ScanConfig{}, err
		}
		bools[key] = val
	}

	severity, err := domain.ParseSeverity(r.v.GetString(KeySeverity))
	if err != nil {
		return domain.ScanConfig{}, &domain.ErrConfiguration{
			Key:   KeySeverity,
			Value: r.v.GetString(KeySeverity),
			Msg:   err.Error(),
		}
	}

	logLevel, err := normalizeLogLevel(r.v.GetString(KeyLogLevel))
	if err != nil {
		return domain.ScanConfig{}, err
	}
	if bools[KeyDebug] {
		logLevel = "DEBUG"
	}

	project := r.v.GetString(KeyProject)
	if project == "" {
		wd, err := os.Getwd()
		if err != nil {
			return domain.ScanConfig{}, err
		}
		project = filepath.Base(wd)
	}

	scanOutput := r.v.GetString(KeyScanOutput)
	terrascanOutput := r.v.GetString(KeyTerrascanOutput)
	if terrascanOutput == "" {
		terrascanOutput = filepath.Join(scanOutput, "terrascan")
	}

	renderMode := domain.RenderModeNone
	if bools[KeyRender] {
		renderMode = domain.RenderModeFull
	}
	if bools[KeyRenderOnly] {
		renderMode = domain.RenderModeOnly
	}

	return domain.ScanConfig{
		RunID:           uuid.NewString(),
		Project:         project,
		Target:          r.v.GetString(KeyTarget),
		PlanFile:        r.v.GetString(KeyPlanFile),
		PlanJSON:        r.v.GetString(KeyPlanJSON),
		ScanOutput:      scanOutput,
		TerrascanOutput: terrascanOutput,
		Severity:        severity,
		Fmt:             bools[KeyFmt],
		Validate:        bools[KeyValidate],
		TFLint:          bools[KeyTFLint],
		Checkov:         bools[KeyCheckov],
		Terrascan:       bools[KeyTerrascan],
		TFSec:           bools[KeyTFSec],
		Cleanup:         bools[KeyCleanup],
		RenderMode:      renderMode,
		DryRun:          bools[KeyDryRun],
		Debug:           bools[KeyDebug],
		LogLevel:        logLevel,
		StopOnError:     bools[KeyStopOnError],
		Timeout:         r.v.GetDuration(KeyTimeout),
	}, nil
}

func parseBool(key, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		return true, nil
	case "false", "":
		return false, nil
	}
	return false, &domain.ErrConfiguration{Key: key, Value: value, Msg: "expected true or false"}
}

func normalizeLogLevel(level string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(level))
	switch normalized {
	case "DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL":
		return normalized, nil
	}
	return "", &domain.ErrConfiguration{Key: KeyLogLevel, Value: level, Msg: "expected DEBUG, INFO, WARNING, ERROR or CRITICAL"}
}

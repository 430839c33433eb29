package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/de-tools/scan-atlas/pkg/services/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct{ mock.Mock }

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	callArgs := m.Called(ctx, name, args)
	return callArgs.Get(0).(command.Result), callArgs.Error(1)
}

func (m *mockRunner) LookPath(name string) (string, error) {
	callArgs := m.Called(name)
	return callArgs.String(0), callArgs.Error(1)
}

func TestEnsure_BinaryAlreadyOnPath(t *testing.T) {
	runner := new(mockRunner)
	runner.On("LookPath", "tfsec").Return("/usr/bin/tfsec", nil)

	checker := NewChecker(runner)
	err := checker.Ensure(context.Background(), domain.ToolTFSec)

	require.NoError(t, err)
	assert.Equal(t, StateAvailable, checker.State(domain.ToolTFSec))
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsure_InstallsMissingTool(t *testing.T) {
	runner := new(mockRunner)
	// First probe misses, probe after install succeeds.
	runner.On("LookPath", "terrascan").Return("", errors.New("not found")).Once()
	runner.On("LookPath", "apt-get").Return("/usr/bin/apt-get", nil)
	runner.On("Run", mock.Anything, "apt-get", []string{"install", "-y", "terrascan"}).
		Return(command.Result{ExitCode: 0}, nil)
	runner.On("LookPath", "terrascan").Return("/usr/local/bin/terrascan", nil)

	checker := NewChecker(runner)
	err := checker.Ensure(context.Background(), domain.ToolTerrascan)

	require.NoError(t, err)
	assert.Equal(t, StateAvailable, checker.State(domain.ToolTerrascan))
	runner.AssertExpectations(t)
}

func TestEnsure_InstallerFailureIsNonFatalError(t *testing.T) {
	runner := new(mockRunner)
	runner.On("LookPath", "checkov").Return("", errors.New("not found"))
	runner.On("LookPath", "apt-get").Return("/usr/bin/apt-get", nil)
	runner.On("Run", mock.Anything, "apt-get", mock.Anything).
		Return(command.Result{ExitCode: 1, Stderr: []byte("no candidate")}, nil)

	checker := NewChecker(runner)
	err := checker.Ensure(context.Background(), domain.ToolCheckov)

	var installErr *domain.ErrToolInstall
	require.ErrorAs(t, err, &installErr)
	assert.Equal(t, domain.ToolCheckov, installErr.Tool)
	assert.Equal(t, StateUnavailable, checker.State(domain.ToolCheckov))
}

func TestEnsure_UnsupportedPlatform(t *testing.T) {
	runner := new(mockRunner)
	runner.On("LookPath", "tflint").Return("", errors.New("not found"))
	for _, mgr := range managerPriority {
		runner.On("LookPath", string(mgr)).Return("", errors.New("not found"))
	}

	checker := NewChecker(runner)
	err := checker.Ensure(context.Background(), domain.ToolTFLint)

	var unsupported *domain.ErrUnsupportedPlatform
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, StateUnavailable, checker.State(domain.ToolTFLint))
}

func TestEnsureAll_CollectsPerToolFailures(t *testing.T) {
	runner := new(mockRunner)
	runner.On("LookPath", "tfsec").Return("/usr/bin/tfsec", nil)
	runner.On("LookPath", "checkov").Return("", errors.New("not found"))
	runner.On("LookPath", "apt-get").Return("/usr/bin/apt-get", nil)
	runner.On("Run", mock.Anything, "apt-get", mock.Anything).
		Return(command.Result{ExitCode: 100}, nil)

	checker := NewChecker(runner)
	failures, err := checker.EnsureAll(context.Background(), []domain.Tool{
		domain.ToolTFSec,
		domain.ToolCheckov,
	})

	require.NoError(t, err)
	assert.Len(t, failures, 1)
	assert.Contains(t, failures, domain.ToolCheckov)
	assert.Equal(t, StateAvailable, checker.State(domain.ToolTFSec))
}

func TestDetectPackageManager_PriorityOrder(t *testing.T) {
	runner := new(mockRunner)
	runner.On("LookPath", "apt-get").Return("", errors.New("not found"))
	runner.On("LookPath", "dnf").Return("/usr/bin/dnf", nil)

	mgr, err := DetectPackageManager(runner)
	require.NoError(t, err)
	assert.Equal(t, ManagerDnf, mgr)
	// brew is lower priority and must never be probed once dnf matched.
	runner.AssertNotCalled(t, "LookPath", "brew")
}

func TestLookup_SharedTerraformBinary(t *testing.T) {
	fmtSpec, ok := Lookup(domain.ToolTerraformFmt)
	require.True(t, ok)
	validateSpec, ok := Lookup(domain.ToolTerraformValidate)
	require.True(t, ok)

	assert.Equal(t, "terraform", fmtSpec.Binary)
	assert.Equal(t, "terraform", validateSpec.Binary)
}

package tools

import (
	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/de-tools/scan-atlas/pkg/services/command"
)

// PackageManager is a host package manager capable of installing tools.
type PackageManager string

const (
	ManagerApt  PackageManager = "apt-get"
	ManagerDnf  PackageManager = "dnf"
	ManagerYum  PackageManager = "yum"
	ManagerApk  PackageManager = "apk"
	ManagerBrew PackageManager = "brew"
)

// managerPriority is the fixed probe order; the first binary found on the
// PATH wins.
var managerPriority = []PackageManager{
	ManagerApt,
	ManagerDnf,
	ManagerYum,
	ManagerApk,
	ManagerBrew,
}

// DetectPackageManager probes the PATH for a known package manager.
func DetectPackageManager(runner command.Runner) (PackageManager, error) {
	probed := make([]string, 0, len(managerPriority))
	for _, mgr := range managerPriority {
		probed = append(probed, string(mgr))
		if _, err := runner.LookPath(string(mgr)); err == nil {
			return mgr, nil
		}
	}
	return "", &domain.ErrUnsupportedPlatform{Probed: probed}
}

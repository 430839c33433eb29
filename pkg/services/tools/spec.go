package tools

import "github.com/de-tools/scan-atlas/pkg/models/domain"

// InstallStep is one argv the installer routine executes.
type InstallStep struct {
	Name string
	Args []string
}

// Spec maps a logical tool to its binary, its version probe and the
// installer routine per package manager. The table is read-only.
type Spec struct {
	Name        domain.Tool
	Binary      string
	VersionArgs []string
	Installers  map[PackageManager][]InstallStep
}

// pipInstall covers the Python-based scanners: the package manager only
// provides pip, the tool itself always comes from PyPI.
func pipInstall(mgr PackageManager, pkg string) []InstallStep {
	steps := []InstallStep{}
	switch mgr {
	case ManagerApt:
		steps = append(steps, InstallStep{"apt-get", []string{"install", "-y", "python3-pip"}})
	case ManagerDnf:
		steps = append(steps, InstallStep{"dnf", []string{"install", "-y", "python3-pip"}})
	case ManagerYum:
		steps = append(steps, InstallStep{"yum", []string{"install", "-y", "python3-pip"}})
	case ManagerApk:
		steps = append(steps, InstallStep{"apk", []string{"add", "py3-pip"}})
	case ManagerBrew:
		steps = append(steps, InstallStep{"brew", []string{"install", "python3"}})
	}
	return append(steps, InstallStep{"pip3", []string{"install", pkg}})
}

func nativeInstall(pkg string) map[PackageManager][]InstallStep {
	return map[PackageManager][]InstallStep{
		ManagerApt:  {{"apt-get", []string{"install", "-y", pkg}}},
		ManagerDnf:  {{"dnf", []string{"install", "-y", pkg}}},
		ManagerYum:  {{"yum", []string{"install", "-y", pkg}}},
		ManagerApk:  {{"apk", []string{"add", pkg}}},
		ManagerBrew: {{"brew", []string{"install", pkg}}},
	}
}

func pipInstallers(pkg string) map[PackageManager][]InstallStep {
	out := make(map[PackageManager][]InstallStep, len(managerPriority))
	for _, mgr := range managerPriority {
		out[mgr] = pipInstall(mgr, pkg)
	}
	return out
}

var specs = map[domain.Tool]Spec{
	domain.ToolCheckov: {
		Name:        domain.ToolCheckov,
		Binary:      "checkov",
		VersionArgs: []string{"--version"},
		Installers:  pipInstallers("checkov"),
	},
	domain.ToolTerrascan: {
		Name:        domain.ToolTerrascan,
		Binary:      "terrascan",
		VersionArgs: []string{"version"},
		Installers:  nativeInstall("terrascan"),
	},
	domain.ToolTFSec: {
		Name:        domain.ToolTFSec,
		Binary:      "tfsec",
		VersionArgs: []string{"--version"},
		Installers:  nativeInstall("tfsec"),
	},
	domain.ToolTFLint: {
		Name:        domain.ToolTFLint,
		Binary:      "tflint",
		VersionArgs: []string{"--version"},
		Installers:  nativeInstall("tflint"),
	},
	domain.ToolTerraformFmt: {
		Name:        domain.ToolTerraformFmt,
		Binary:      "terraform",
		VersionArgs: []string{"version"},
		Installers:  nativeInstall("terraform"),
	},
	domain.ToolTerraformValidate: {
		Name:        domain.ToolTerraformValidate,
		Binary:      "terraform",
		VersionArgs: []string{"version"},
		Installers:  nativeInstall("terraform"),
	},
	domain.ToolKustomize: {
		Name:        domain.ToolKustomize,
		Binary:      "kustomize",
		VersionArgs: []string{"version"},
		Installers:  nativeInstall("kustomize"),
	},
}

// Lookup returns the spec for a logical tool name.
func Lookup(tool domain.Tool) (Spec, bool) {
	s, ok := specs[tool]
	return s, ok
}

package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/de-tools/scan-atlas/pkg/services/command"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// OutputDir and ManifestName form the fixed render destination.
	OutputDir    = "rendered_output"
	ManifestName = "manifest.yaml"
)

var descriptorNames = []string{"kustomization.yaml", "kustomization.yml"}

// Renderer flattens an overlay directory into a single manifest file by
// shelling out to kustomize.
type Renderer struct {
	runner command.Runner
	outDir string
}

func NewRenderer(runner command.Runner) *Renderer {
	return &Renderer{runner: runner, outDir: OutputDir}
}

// descriptor returns the kustomization file under dir, or "" when the
// directory is not an overlay.
func descriptor(dir string) string {
	for _, name := range descriptorNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Render builds target with kustomize and writes the flattened manifest to
// rendered_output/manifest.yaml. A target without a kustomization descriptor
// is a no-op, not an error: scanners then consume the raw target directory.
func (r *Renderer) Render(ctx context.Context, target string) (domain.RenderedManifest, error) {
	logger := zerolog.Ctx(ctx)

	manifest := domain.RenderedManifest{SourceDir: target}

	if descriptor(target) == "" {
		manifest.Skipped = true
		manifest.SkipReason = "no kustomization file in target"
		logger.Info().Str("target", target).Msg("no overlay descriptor, skipping render")
		return manifest, nil
	}

	res, err := r.runner.Run(ctx, "kustomize", "build", target)
	if err != nil {
		return manifest, fmt.Errorf("kustomize build: %w", err)
	}
	if res.ExitCode != 0 {
		return manifest, fmt.Errorf("kustomize build exited %d: %s", res.ExitCode, res.Stderr)
	}

	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return manifest, fmt.Errorf("create render dir: %w", err)
	}

	outPath := filepath.Join(r.outDir, ManifestName)
	if err := os.WriteFile(outPath, res.Stdout, 0o644); err != nil {
		return manifest, fmt.Errorf("write rendered manifest: %w", err)
	}

	manifest.Path = outPath
	manifest.Documents = countDocuments(res.Stdout)

	logger.Info().
		Str("target", target).
		Str("manifest", outPath).
		Int("documents", manifest.Documents).
		Msg("rendered overlay")

	return manifest, nil
}

// countDocuments counts the YAML documents in a rendered manifest stream.
func countDocuments(data []byte) int {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	count := 0
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break
		}
		if doc != nil {
			count++
		}
	}
	return count
}

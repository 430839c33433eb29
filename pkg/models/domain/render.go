package domain

// RenderedManifest is the product of flattening an overlay directory into a
// single manifest file. It lives for one invocation unless render-only mode
// makes it the final deliverable.
type RenderedManifest struct {
	SourceDir string
	Path      string
	// Documents is the number of YAML documents in the rendered output,
	// zero when the renderer was a no-op.
	Documents int
	Skipped   bool
	// SkipReason explains a no-op render, e.g. no kustomization file.
	SkipReason string
}

// ScanInput returns the path scanners should consume: the rendered file
// when one was produced, the raw source directory otherwise.
func (m RenderedManifest) ScanInput() string {
	if m.Skipped || m.Path == "" {
		return m.SourceDir
	}
	return m.Path
}

package discovery

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// FindYAMLFiles walks base recursively and returns every .yaml/.yml file.
func FindYAMLFiles(base string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

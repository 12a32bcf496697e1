package path

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var SkipDirs = []string{".git", ".github", ".vscode", "node_modules", "dist", "build", "vendor", ".venv", "venv"}

// GetAllFilesRecursive returns the files under root whose names end with one of the suffixes,
// in lexical order.
func GetAllFilesRecursive(fs afero.Fs, root string, suffixes []string) ([]string, error) {
	var paths []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && slices.Contains(SkipDirs, info.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		for _, s := range suffixes {
			if strings.HasSuffix(path, s) {
				paths = append(paths, path)
				break
			}
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error walking directory")
	}

	return paths, nil
}

// ExpandPaths resolves a mixed list of files and directories into files. Files are kept in the
// given order, directories are replaced by the matching files found beneath them.
func ExpandPaths(fs afero.Fs, paths []string, suffixes []string) ([]string, error) {
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		if !DirExists(fs, p) {
			result = append(result, p)
			continue
		}

		files, err := GetAllFilesRecursive(fs, p, suffixes)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, errors.Errorf("no files with suffixes %v found in directory %s", suffixes, p)
		}
		result = append(result, files...)
	}

	return result, nil
}

package scanner

import (
	"io/fs"
	"path/filepath"
	"sort"

	"soilscan/imageprocessor"
	"soilscan/logging"
)

// countFilesToProcess lists the image files under root in lexical order
func countFilesToProcess(root string) (FileStats, error) {
	var stats FileStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logging.LogError("Error accessing path %s: %v", path, err)
			return nil
		}
		if d.IsDir() || !imageprocessor.IsImageFile(path) {
			return nil
		}

		stats.paths = append(stats.paths, path)
		stats.totalFiles++
		if imageprocessor.IsPreviewFormat(path) {
			stats.previewFiles++
		}
		return nil
	})
	if err != nil {
		return FileStats{}, err
	}

	sort.Strings(stats.paths)
	return stats, nil
}

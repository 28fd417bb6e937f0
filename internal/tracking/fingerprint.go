package tracking

import (
	"fmt"
	"os"

	"docrag/internal/util"
)

// Fingerprint returns the sha256 of the file content and its modification
// time in fractional Unix seconds.
func Fingerprint(path string) (string, float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("stat %s: %w", path, err)
	}
	hash, err := util.SHA256File(path)
	if err != nil {
		return "", 0, err
	}
	return hash, ModTime(info), nil
}

func ModTime(info os.FileInfo) float64 {
	return float64(info.ModTime().UnixNano()) / 1e9
}

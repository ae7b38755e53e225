package bfs

import (
	"os"
)

func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsDir returns true if path exists and is a directory (symlinks are followed)
func IsDir(path string) bool {
	stats, err := os.Stat(path)
	return err == nil && stats.IsDir()
}

package filesystem

import (
	"os"
	"path/filepath"
)

const (
	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
	GB = 1024 * MB
)

// FileSize returns the size of a single file in bytes. It goes through the
// current FileInfoReader so tests can pin the value.
func FileSize(path string) (int64, error) {
	stat, err := Stat(path)
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

// ListFiles lists all files present in a directory recursively.
func ListFiles(path string) ([]string, error) {
	var paths []string
	err := filepath.Walk(path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Package filesystem wraps the few os file primitives the editor relies on
// behind a seam tests can override, so file sizes and modification times
// stay reproducible across machines and runs.
package filesystem

import (
	"os"
	"time"

	"github.com/md4h/prosedown/pkg/clock"
	"github.com/md4h/prosedown/pkg/resync"
)

var (
	// Lazy-load
	fileInfoReaderOnce      resync.Once
	fileInfoReaderSingleton FileInfoReader
)

type FileInfoReader interface {
	Lstat(name string) (os.FileInfo, error)
	Stat(name string) (os.FileInfo, error)
}

// StandardFileInfoReader delegates to the os package.
type StandardFileInfoReader struct{}

func (r StandardFileInfoReader) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (r StandardFileInfoReader) Lstat(name string) (os.FileInfo, error) {
	return os.Lstat(name)
}

// reproducibleFileInfo overrides the os.FileInfo fields that differ between
// two runs of the same test.
type reproducibleFileInfo struct {
	stat os.FileInfo
}

func (fi reproducibleFileInfo) Name() string {
	return fi.stat.Name()
}
func (fi reproducibleFileInfo) Size() int64 {
	if fi.stat.Size() == 0 {
		return 0
	}
	return 1 // Reproducible
}
func (fi reproducibleFileInfo) Mode() os.FileMode {
	return fi.stat.Mode()
}
func (fi reproducibleFileInfo) ModTime() time.Time {
	return clock.Now()
}
func (fi reproducibleFileInfo) IsDir() bool {
	return fi.stat.IsDir()
}
func (fi reproducibleFileInfo) Sys() any {
	return fi.stat.Sys()
}

// ClockBasedFileInfoReader is a FileInfoReader for reproducible tests.
// It reports the frozen clock as modification time and a static size of 0
// for an empty file, 1 for any non-empty file.
type ClockBasedFileInfoReader struct{}

func NewClockBasedFileInfoReader() *ClockBasedFileInfoReader {
	return &ClockBasedFileInfoReader{}
}

func (r ClockBasedFileInfoReader) Stat(name string) (os.FileInfo, error) {
	// Execute the real Stat function to reproduce errors
	stat, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	return reproducibleFileInfo{stat}, nil
}

func (r ClockBasedFileInfoReader) Lstat(name string) (os.FileInfo, error) {
	// Execute the real Lstat function to reproduce errors
	stat, err := os.Lstat(name)
	if err != nil {
		return nil, err
	}
	return reproducibleFileInfo{stat}, nil
}

func CurrentFileInfoReader() FileInfoReader {
	if fileInfoReaderSingleton != nil {
		return fileInfoReaderSingleton
	}
	fileInfoReaderOnce.Do(func() {
		fileInfoReaderSingleton = StandardFileInfoReader{}
	})
	return fileInfoReaderSingleton
}

// Stat is os.Stat behind the current reader.
func Stat(name string) (os.FileInfo, error) {
	return CurrentFileInfoReader().Stat(name)
}

// Lstat is os.Lstat behind the current reader.
func Lstat(name string) (os.FileInfo, error) {
	return CurrentFileInfoReader().Lstat(name)
}

func OverrideFileInfoReader(reader FileInfoReader) {
	fileInfoReaderSingleton = reader
}

func RestoreFileInfoReader() {
	fileInfoReaderSingleton = nil
	fileInfoReaderOnce.Reset()
}

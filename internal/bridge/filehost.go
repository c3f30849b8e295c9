package bridge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/md4h/prosedown/internal/helpers"
	"github.com/md4h/prosedown/internal/medias"
	"github.com/md4h/prosedown/pkg/clock"
	"github.com/md4h/prosedown/pkg/filesystem"
	"github.com/md4h/prosedown/pkg/text"
)

const (
	// BackupDir is the fixed workspace-relative location of resize backups.
	BackupDir = ".md4h/image-backups"

	// DefaultImageFolder receives pasted and dropped images when no target
	// folder is configured.
	DefaultImageFolder = "medias"

	// DefaultMaxImageBytes bounds a single saved image.
	DefaultMaxImageBytes = 20 * filesystem.MB

	maxSearchResults = 50
)

var ErrOutsideWorkspace = errors.New("path escapes the workspace")

// FileHost serves the host side of the bridge against a local workspace
// directory. All paths in requests and answers are workspace-relative with
// forward slashes; anything resolving outside the root is refused.
type FileHost struct {
	root string

	// MaxImageBytes caps SaveImage payloads. Zero means no limit.
	MaxImageBytes int64
}

func NewFileHost(root string) (*FileHost, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", abs)
	}
	return &FileHost{root: abs, MaxImageBytes: DefaultMaxImageBytes}, nil
}

// Root returns the absolute workspace root.
func (h *FileHost) Root() string {
	return h.root
}

// SaveImage writes the image bytes under the target folder and returns the
// relative path the document should embed. Saving bytes that already exist
// under the same name reuses the existing file; a name collision with
// different bytes picks the next free numbered name.
func (h *FileHost) SaveImage(req SaveImage) (ImageSaved, error) {
	if len(req.Data) == 0 {
		return ImageSaved{}, fmt.Errorf("image %s: empty payload", req.Name)
	}
	if h.MaxImageBytes > 0 && int64(len(req.Data)) > h.MaxImageBytes {
		return ImageSaved{}, fmt.Errorf("image %s: %d bytes exceeds the %d bytes limit",
			req.Name, len(req.Data), h.MaxImageBytes)
	}

	folder := req.TargetFolder
	if folder == "" {
		folder = DefaultImageFolder
	}
	dir, err := h.resolve(folder)
	if err != nil {
		return ImageSaved{}, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ImageSaved{}, err
	}

	stem := text.TrimExtension(req.Name)
	ext := filepath.Ext(req.Name)
	path := filepath.Join(dir, req.Name)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}
		if existing, err := helpers.HashFromFile(path); err == nil && existing == helpers.Hash(req.Data) {
			// Pasting the same bytes twice reuses the first copy.
			return ImageSaved{PlaceholderID: req.PlaceholderID, NewSrc: h.relative(path)}, nil
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
	if err := os.WriteFile(path, req.Data, 0644); err != nil {
		return ImageSaved{}, err
	}
	return ImageSaved{PlaceholderID: req.PlaceholderID, NewSrc: h.relative(path)}, nil
}

// CheckImage answers whether the image resolves to an existing file under
// the workspace root.
func (h *FileHost) CheckImage(req CheckImageInWorkspace) ImageWorkspaceStatus {
	status := ImageWorkspaceStatus{RequestID: req.RequestID}
	abs, err := h.resolve(req.ImagePath)
	if err != nil {
		return status
	}
	if _, err := filesystem.Stat(abs); err != nil {
		return status
	}
	status.InWorkspace = true
	status.AbsolutePath = abs
	return status
}

// ResizeImage backs up the current file under BackupDir, overwrites it with
// the resized bytes, and returns the backup path needed to undo. The backup
// name embeds a millisecond timestamp in the legacy {stem}-{millis} shape so
// version scans recognize it.
func (h *FileHost) ResizeImage(req ResizeImage) (ImageResized, error) {
	abs, err := h.resolve(req.ImagePath)
	if err != nil {
		return ImageResized{}, err
	}
	current, err := os.ReadFile(abs)
	if err != nil {
		return ImageResized{}, err
	}

	backupDir := filepath.Join(h.root, filepath.FromSlash(BackupDir))
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return ImageResized{}, err
	}
	backupName := fmt.Sprintf("%s-%d%s",
		text.TrimExtension(filepath.Base(abs)), clock.Now().UnixMilli(), filepath.Ext(abs))
	backupPath := filepath.Join(backupDir, backupName)
	if err := os.WriteFile(backupPath, current, 0644); err != nil {
		return ImageResized{}, err
	}

	if err := os.WriteFile(abs, req.ImageData, 0644); err != nil {
		return ImageResized{}, err
	}
	return ImageResized{ImagePath: req.ImagePath, BackupPath: h.relative(backupPath)}, nil
}

// UndoResize restores the backup over the image. The backup file stays in
// place so the history can walk back over it again.
func (h *FileHost) UndoResize(req UndoResize) error {
	abs, err := h.resolve(req.ImagePath)
	if err != nil {
		return err
	}
	backupAbs, err := h.resolve(req.BackupPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(backupAbs)
	if err != nil {
		return err
	}
	return os.WriteFile(abs, data, 0644)
}

// RedoResize re-applies resized bytes after an undo. No new backup is
// written; the one from the original resize still exists.
func (h *FileHost) RedoResize(req RedoResize) error {
	abs, err := h.resolve(req.ImagePath)
	if err != nil {
		return err
	}
	return os.WriteFile(abs, req.ImageData, 0644)
}

// FindImageVersions lists the image itself followed by the resize backups
// sharing its stem, recognized across the historical naming formats.
func (h *FileHost) FindImageVersions(req FindImageVersions) (ImageVersions, error) {
	versions := ImageVersions{RequestID: req.RequestID}
	abs, err := h.resolve(req.ImagePath)
	if err != nil {
		return versions, err
	}
	stem := text.TrimExtension(filepath.Base(abs))

	if v, ok := h.describeImage(abs, true); ok {
		versions.Versions = append(versions.Versions, v)
	}

	backupDir := filepath.Join(h.root, filepath.FromSlash(BackupDir))
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		// No backups yet.
		return versions, nil
	}
	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if medias.ParseImageFilename(entry.Name()).Stem != stem {
			continue
		}
		backups = append(backups, entry.Name())
	}
	sort.Strings(backups)
	for _, name := range backups {
		if v, ok := h.describeImage(filepath.Join(backupDir, name), false); ok {
			versions.Versions = append(versions.Versions, v)
		}
	}
	return versions, nil
}

func (h *FileHost) describeImage(abs string, current bool) (ImageVersion, bool) {
	stat, err := filesystem.Stat(abs)
	if err != nil {
		return ImageVersion{}, false
	}
	modified := stat.ModTime()
	version := ImageVersion{
		Filename:     filepath.Base(abs),
		RelativePath: h.relative(abs),
		FileSize:     stat.Size(),
		ModifiedAt:   &modified,
		IsCurrent:    current,
	}
	// Unreadable dimensions degrade to zero, they are informational only.
	if dims, err := medias.ReadDimensionsFile(abs); err == nil {
		version.Width = dims.Width
		version.Height = dims.Height
	}
	return version, true
}

// SearchFiles walks the workspace for files matching the query, skipping
// hidden directories. Filters, when present, restrict the extensions.
func (h *FileHost) SearchFiles(req SearchFiles) SearchResults {
	results := SearchResults{RequestID: req.RequestID}
	paths, err := filesystem.ListFiles(h.root)
	if err != nil {
		return results
	}
	query := strings.ToLower(req.Query)
	for _, path := range paths {
		rel := h.relative(path)
		if hiddenPath(rel) {
			continue
		}
		name := filepath.Base(rel)
		if query != "" && !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		if !matchesFilters(name, req.Filters) {
			continue
		}
		results.Files = append(results.Files, FileMatch{Filename: name, RelativePath: rel})
		if len(results.Files) == maxSearchResults {
			break
		}
	}
	return results
}

/* Helpers */

// resolve turns a request path into an absolute one and refuses anything
// escaping the workspace root.
func (h *FileHost) resolve(p string) (string, error) {
	abs := filepath.FromSlash(p)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(h.root, abs)
	}
	abs = filepath.Clean(abs)
	rel, err := filepath.Rel(h.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, p)
	}
	return abs, nil
}

// relative returns the workspace-relative slash path of an absolute one.
func (h *FileHost) relative(abs string) string {
	rel, err := filepath.Rel(h.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func hiddenPath(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

func matchesFilters(name string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, filter := range filters {
		if strings.ToLower(filter) == ext {
			return true
		}
	}
	return false
}

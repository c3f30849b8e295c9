// Package bridge defines the message surface between the editor core and
// its host process: the typed request/response shapes, the correlation that
// keeps concurrent round-trips apart, a workspace file host serving the
// requests locally, and a watcher reporting external file edits.
package bridge

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message kinds. Requests flow from the editor to the host; the matching
// answers and external events flow back.
const (
	KindSaveImage             = "saveImage"
	KindImageSaved            = "imageSaved"
	KindImageError            = "imageError"
	KindResizeImage           = "resizeImage"
	KindImageResized          = "imageResized"
	KindUndoResize            = "undoResize"
	KindRedoResize            = "redoResize"
	KindCheckImageInWorkspace = "checkImageInWorkspace"
	KindImageWorkspaceStatus  = "imageWorkspaceStatus"
	KindFindImageVersions     = "findImageVersions"
	KindImageVersions         = "imageVersions"
	KindSearchFiles           = "searchFiles"
	KindSearchResults         = "searchResults"
	KindPushContent           = "pushContent"
	KindUpdateContent         = "updateContent"
)

// Envelope frames every message with its kind. The payload stays raw until
// the receiver knows which struct to decode into.
type Envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope wraps a payload for sending.
func NewEnvelope(kind string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("unencodable %s payload: %w", kind, err)
	}
	return Envelope{Kind: kind, Payload: raw}, nil
}

// Decode unmarshals the payload into the struct matching the kind.
func (e Envelope) Decode(into any) error {
	if err := json.Unmarshal(e.Payload, into); err != nil {
		return fmt.Errorf("malformed %s payload: %w", e.Kind, err)
	}
	return nil
}

// SaveImage asks the host to persist pasted or dropped image bytes.
type SaveImage struct {
	PlaceholderID string `json:"placeholderId"`
	Name          string `json:"name"`
	Data          []byte `json:"data"`
	MimeType      string `json:"mimeType"`
	TargetFolder  string `json:"targetFolder"`
}

// ImageSaved confirms a SaveImage with the path the document should embed.
type ImageSaved struct {
	PlaceholderID string `json:"placeholderId"`
	NewSrc        string `json:"newSrc"`
}

// ImageError reports a failed SaveImage. The optimistic placeholder must be
// reverted on reception.
type ImageError struct {
	PlaceholderID string `json:"placeholderId"`
	Error         string `json:"error"`
}

// ResizeImage asks the host to overwrite an image with resized bytes after
// backing up the current file.
type ResizeImage struct {
	ImagePath      string `json:"imagePath"`
	NewWidth       int    `json:"newWidth"`
	NewHeight      int    `json:"newHeight"`
	OriginalWidth  int    `json:"originalWidth"`
	OriginalHeight int    `json:"originalHeight"`
	ImageData      []byte `json:"imageData"`
}

// ImageResized confirms a ResizeImage and carries the backup needed to undo
// it.
type ImageResized struct {
	ImagePath  string `json:"imagePath"`
	BackupPath string `json:"backupPath"`
}

// UndoResize restores the backup written by an earlier resize.
type UndoResize struct {
	ImagePath  string `json:"imagePath"`
	BackupPath string `json:"backupPath"`
}

// RedoResize re-applies resized bytes after an undo.
type RedoResize struct {
	ImagePath string `json:"imagePath"`
	NewWidth  int    `json:"newWidth"`
	NewHeight int    `json:"newHeight"`
	ImageData []byte `json:"imageData"`
}

// CheckImageInWorkspace asks whether a referenced image lives under the
// workspace root. The answer is correlated by request id; a timeout falls
// back to "in workspace".
type CheckImageInWorkspace struct {
	ImagePath string `json:"imagePath"`
	RequestID string `json:"requestId"`
}

// ImageWorkspaceStatus answers a CheckImageInWorkspace.
type ImageWorkspaceStatus struct {
	RequestID    string `json:"requestId"`
	InWorkspace  bool   `json:"inWorkspace"`
	AbsolutePath string `json:"absolutePath,omitempty"`
}

// FindImageVersions asks for the saved versions sharing an image's stem,
// resize backups included.
type FindImageVersions struct {
	ImagePath string `json:"imagePath"`
	RequestID string `json:"requestId"`
}

// ImageVersions answers a FindImageVersions.
type ImageVersions struct {
	RequestID string         `json:"requestId"`
	Versions  []ImageVersion `json:"versions"`
}

// ImageVersion describes one file usable as a version of an image.
type ImageVersion struct {
	Filename     string     `json:"filename"`
	RelativePath string     `json:"relativePath"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	FileSize     int64      `json:"fileSize,omitempty"`
	ModifiedAt   *time.Time `json:"modifiedDate,omitempty"`
	IsCurrent    bool       `json:"isCurrent"`
}

// SearchFiles asks for workspace files matching an autocomplete query.
// Typing issues a new request per keystroke; only the latest id is live.
type SearchFiles struct {
	Query     string   `json:"query"`
	Filters   []string `json:"filters,omitempty"`
	RequestID string   `json:"requestId"`
}

// SearchResults answers a SearchFiles.
type SearchResults struct {
	RequestID string      `json:"requestId"`
	Files     []FileMatch `json:"files"`
}

// FileMatch is one hit of a file search.
type FileMatch struct {
	Filename     string `json:"filename"`
	RelativePath string `json:"relativePath"`
}

// PushContent carries the full serialized document from editor to host.
type PushContent struct {
	Markdown string `json:"markdown"`
}

// UpdateContent carries an external full-document update from host to
// editor, subject to echo suppression.
type UpdateContent struct {
	Markdown string `json:"markdown"`
}

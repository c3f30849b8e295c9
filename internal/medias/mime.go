package medias

import (
	"path/filepath"
	"strings"
)

// mimeTypes covers the formats a documentation workspace actually hosts.
// See https://developer.mozilla.org/en-US/docs/Web/HTTP/Basics_of_HTTP/MIME_types/Common_types
var mimeTypes = map[string]string{
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".ico":  "image/vnd.microsoft.icon",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".webp": "image/webp",

	".csv":  "text/csv",
	".htm":  "text/html",
	".html": "text/html",
	".json": "application/json",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".yaml": "text/yaml",
	".yml":  "text/yaml",
}

// MimeType returns the MIME type of a file based on its extension.
// Unknown extensions fall back to application/octet-stream.
func MimeType(path string) string {
	if mimeType, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mimeType
	}
	return "application/octet-stream"
}

// IsImage reports whether the file is an image the editor can embed.
func IsImage(path string) bool {
	return strings.HasPrefix(MimeType(path), "image/")
}

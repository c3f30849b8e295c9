package medias

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/md4h/prosedown/pkg/clock"
	"github.com/md4h/prosedown/pkg/text"
)

// genericStems are original names that carry no information, a pasted
// screenshot arrives as "image.png" on most platforms. They are replaced
// by a timestamped name instead of being kept.
var genericStems = map[string]bool{
	"image":           true,
	"screenshot":      true,
	"clipboard-image": true,
	"clipboard_image": true,
}

// RegisterGenericStems extends the generic set. Workspaces can declare
// additional meaningless capture names (camera defaults, localized
// screenshot names) in their configuration.
func RegisterGenericStems(stems ...string) {
	for _, stem := range stems {
		if stem == "" {
			continue
		}
		genericStems[strings.ToLower(stem)] = true
	}
}

var (
	sanitizeRe  = regexp.MustCompile(`[^a-zA-Z0-9-_]+`)
	hyphenRunRe = regexp.MustCompile(`-{2,}`)
)

const maxStemLength = 50

// GenerateImageName picks the stored filename for a dropped or pasted
// image. Generic or empty names become {source}_{timestamp}.{ext} with a
// second-resolution UTC timestamp; anything else keeps its stem,
// sanitized to [a-zA-Z0-9-_] and capped in length, with the extension
// lowercased. Earlier releases embedded dimensions and millisecond
// timestamps in every name; the generator no longer does, only
// ParseImageFilename still understands those shapes. Dimensions are
// accepted for call-site compatibility and ignored.
func GenerateImageName(originalName, source string, _ Dimensions) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".png"
	}
	stem := text.TrimExtension(filepath.Base(originalName))

	if stem == "" || stem == "." || genericStems[strings.ToLower(stem)] {
		return source + "_" + clock.Now().UTC().Format("20060102150405") + ext
	}

	sanitized := sanitizeRe.ReplaceAllString(stem, "-")
	sanitized = hyphenRunRe.ReplaceAllString(sanitized, "-")
	sanitized = strings.Trim(sanitized, "-")
	if len(sanitized) > maxStemLength {
		sanitized = strings.Trim(sanitized[:maxStemLength], "-")
	}
	if sanitized == "" {
		// The name was nothing but punctuation.
		return source + "_" + clock.Now().UTC().Format("20060102150405") + ext
	}
	return sanitized + ext
}

// ParsedImageFilename is the best-effort decomposition of an image
// filename. Fields the name does not embed stay at their zero value
// (nil Dimensions, zero Timestamp, empty Source).
type ParsedImageFilename struct {
	Stem       string
	Source     string
	Timestamp  time.Time
	Dimensions *Dimensions
	Ext        string
}

var (
	// {source}_{millis13}_{W}x{H}px.{ext}
	nameMillisDimsRe = regexp.MustCompile(`^(.+)_(\d{13})_(\d+)x(\d+)px\.([A-Za-z0-9]+)$`)
	// {source}_{stem}_{W}x{H}px.{ext}
	nameDimsRe = regexp.MustCompile(`^([^_]+)_(.+)_(\d+)x(\d+)px\.([A-Za-z0-9]+)$`)
	// {stem}-{millis13}.{ext}
	nameHyphenMillisRe = regexp.MustCompile(`^(.+)-(\d{13})\.([A-Za-z0-9]+)$`)
)

// ParseImageFilename recognizes every naming generation this project ever
// produced, newest conventions last since current names are plain
// {stem}.{ext}. It never fails: a name matching no known shape degrades
// to the whole stem with nothing else filled in.
func ParseImageFilename(filename string) ParsedImageFilename {
	base := filepath.Base(filename)

	if m := nameMillisDimsRe.FindStringSubmatch(base); m != nil {
		ms, _ := strconv.ParseInt(m[2], 10, 64)
		return ParsedImageFilename{
			Stem:       m[1],
			Source:     m[1],
			Timestamp:  time.UnixMilli(ms).UTC(),
			Dimensions: parseDims(m[3], m[4]),
			Ext:        strings.ToLower(m[5]),
		}
	}
	if m := nameDimsRe.FindStringSubmatch(base); m != nil {
		return ParsedImageFilename{
			Stem:       m[2],
			Source:     m[1],
			Dimensions: parseDims(m[3], m[4]),
			Ext:        strings.ToLower(m[5]),
		}
	}
	if m := nameHyphenMillisRe.FindStringSubmatch(base); m != nil {
		ms, _ := strconv.ParseInt(m[2], 10, 64)
		return ParsedImageFilename{
			Stem:      m[1],
			Timestamp: time.UnixMilli(ms).UTC(),
			Ext:       strings.ToLower(m[3]),
		}
	}

	return ParsedImageFilename{
		Stem: text.TrimExtension(base),
		Ext:  strings.TrimPrefix(strings.ToLower(filepath.Ext(base)), "."),
	}
}

func parseDims(w, h string) *Dimensions {
	width, _ := strconv.Atoi(w)
	height, _ := strconv.Atoi(h)
	return &Dimensions{Width: width, Height: height}
}

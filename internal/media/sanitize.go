package media

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	underscores = regexp.MustCompile(`_+`)
)

// maxNameLength keeps stored names well inside filesystem limits
const maxNameLength = 200

// SanitizeFilename maps a client-supplied filename onto [A-Za-z0-9._-].
// Runs of underscores collapse, leading and trailing dots and underscores are
// stripped, and an empty result becomes "upload".
func SanitizeFilename(name string) string {
	name = unsafeChars.ReplaceAllString(name, "_")
	name = underscores.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	if len(name) > maxNameLength {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = strings.TrimRight(name[:maxNameLength-len(ext)], "._") + ext
	}
	return name
}

// WithSuffix inserts a short random suffix before the extension of name
func WithSuffix(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		base, ext = ext, ""
	}
	return base + "_" + uuid.New().String()[:8] + ext
}

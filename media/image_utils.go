package media

import (
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// AllowedExtensions lists the accepted upload extensions, without the dot.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "gif"}

var contentTypes = map[string]string{
	".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png", ".gif": "image/gif",
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// IsAllowedImage checks the filename extension against AllowedExtensions,
// ignoring case
func IsAllowedImage(filename string) bool {
	_, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ContentType returns the MIME type for an allowed image filename
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// SanitizeFilename reduces a client-supplied filename to a safe base name:
// directory parts are dropped, whitespace becomes '_' and any character
// outside [A-Za-z0-9_.-] is removed. The result may be empty.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

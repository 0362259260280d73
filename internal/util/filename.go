package util

import (
	"path/filepath"
	"regexp"
	"strings"
)

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// SafeExt extracts a lowercase file extension from a client-supplied
// filename, dropping anything that could not be a plain extension. The
// original name is never trusted beyond this.
func SafeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(strings.TrimSpace(filename))))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return ext
}

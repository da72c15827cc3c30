package sheet

import (
	"regexp"
	"strings"
)

const (
	maxFilenameLen  = 50
	defaultBasename = "my-chord-sheet"
)

var (
	reservedChars = regexp.MustCompile(`[<>:"|?*/\\]`)
	whitespace    = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[^\w\-.]`)
	dashRuns      = regexp.MustCompile(`-+`)
)

// SafeFilename derives a download filename from a sheet title. ext is the
// extension without a dot ("pdf", "png", ...). Titles that sanitise to
// nothing fall back to "my-chord-sheet".
func SafeFilename(title, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "pdf"
	}
	suffix := "." + ext

	name := reservedChars.ReplaceAllString(strings.TrimSpace(title), "")
	name = whitespace.ReplaceAllString(name, "-")
	name = unsafeChars.ReplaceAllString(name, "")
	name = dashRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	name = strings.ToLower(name)
	name = strings.TrimSuffix(name, suffix)

	if len(name) > maxFilenameLen {
		name = strings.TrimRight(name[:maxFilenameLen], "-")
	}
	if name == "" || strings.Trim(name, ".") == "" {
		name = defaultBasename
	}
	return name + suffix
}

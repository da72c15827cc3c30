package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxTitleLength bounds sheet and diagram titles, in bytes.
const MaxTitleLength = 200

// ValidateTitle validates a sheet or diagram title.
// Titles may be empty; they may not contain control characters.
func ValidateTitle(title string) error {
	if len(title) > MaxTitleLength {
		return New(ErrCodeInvalidInput, "title too long (max %d characters)", MaxTitleLength)
	}
	for _, r := range title {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "title contains invalid control characters")
		}
	}
	return nil
}

// sheetIDRegex matches identifiers minted by the stores (uuid or hex).
var sheetIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidateSheetID validates a sheet identifier before it is used as a file
// name or database key.
func ValidateSheetID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "sheet id cannot be empty")
	}
	if !sheetIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid sheet id: %q", id)
	}
	return nil
}

// ValidatePath validates an output file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

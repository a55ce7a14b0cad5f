package pathutils

import (
	"path/filepath"
	"strings"
)

// FilePathSanitizer normalizes file arguments before they are acted on.
type FilePathSanitizer struct {
	homeExpander *HomeExpander
}

// NewFilePathSanitizer constructs a sanitizer. A nil expander uses the process environment.
func NewFilePathSanitizer(homeExpander *HomeExpander) *FilePathSanitizer {
	if homeExpander == nil {
		homeExpander = NewHomeExpander()
	}
	return &FilePathSanitizer{homeExpander: homeExpander}
}

// Sanitize trims and expands each candidate, drops blanks, and keeps the first of
// several candidates that resolve to the same absolute path.
func (sanitizer *FilePathSanitizer) Sanitize(candidatePaths []string) []string {
	sanitizedPaths := make([]string, 0, len(candidatePaths))
	seen := make(map[string]struct{}, len(candidatePaths))
	for _, candidatePath := range candidatePaths {
		trimmedCandidate := strings.TrimSpace(candidatePath)
		if len(trimmedCandidate) == 0 {
			continue
		}

		expandedPath := filepath.Clean(sanitizer.homeExpander.Expand(trimmedCandidate))
		canonicalPath := expandedPath
		if absolutePath, absoluteError := filepath.Abs(expandedPath); absoluteError == nil {
			canonicalPath = absolutePath
		}
		if _, duplicate := seen[canonicalPath]; duplicate {
			continue
		}
		seen[canonicalPath] = struct{}{}
		sanitizedPaths = append(sanitizedPaths, expandedPath)
	}
	return sanitizedPaths
}

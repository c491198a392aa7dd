package api

import (
	"regexp"
	"strings"
)

type (
	// WorkflowID is a unique identifier for a workflow definition
	WorkflowID string

	// SectionID is a unique identifier for a section within a workflow
	SectionID string

	// StepID is a unique identifier for a step within a section
	StepID string

	// RunID is a unique identifier for a live run of a workflow
	RunID string

	// Key addresses an answer in a DataMap. It is either a step ID or a
	// human-readable alias that resolves to one
	Key string
)

// InvalidIDChars matches characters not permitted in workflow, section, and
// step IDs. Valid characters are: letters, digits, underscore, dot, hyphen,
// plus, space
var InvalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_.\-+ ]`)

// SanitizeID lowercases an ID, removes invalid characters, replaces spaces
// with hyphens, and trims leading and trailing hyphens
func SanitizeID[T ~string](id T) T {
	lower := strings.ToLower(string(id))
	sanitized := InvalidIDChars.ReplaceAllString(lower, "")
	sanitized = strings.ReplaceAll(sanitized, " ", "-")
	return T(strings.Trim(sanitized, "-"))
}

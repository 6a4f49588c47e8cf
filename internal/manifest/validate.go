package manifest

import (
	"fmt"
	"net/url"
)

// MaxEntryCount bounds manifest size.
const MaxEntryCount = 4096

// ValidationError represents a manifest validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "manifest validation failed for " + e.Field + ": " + e.Message
	}
	return "manifest validation failed: " + e.Message
}

// Validate checks entry URLs and paths and that paths are unique.
func (m *Manifest) Validate() error {
	if len(m.Entries) == 0 {
		return &ValidationError{Field: "libraries", Message: "manifest has no entries"}
	}
	if len(m.Entries) > MaxEntryCount {
		return &ValidationError{
			Field:   "libraries",
			Message: fmt.Sprintf("too many entries (%d), maximum is %d", len(m.Entries), MaxEntryCount),
		}
	}

	seen := make(map[string]int, len(m.Entries))
	for i, e := range m.Entries {
		field := fmt.Sprintf("libraries[%d]", i+1)

		if err := validateURL(e.URL); err != nil {
			return &ValidationError{Field: field + ".url", Message: err.Error()}
		}
		if err := validateRelPath(e.Path); err != nil {
			return &ValidationError{Field: field + ".path", Message: err.Error()}
		}
		if prev, ok := seen[e.Path]; ok {
			return &ValidationError{
				Field:   field + ".path",
				Message: fmt.Sprintf("duplicate path %s (also libraries[%d])", e.Path, prev),
			}
		}
		seen[e.Path] = i + 1
	}

	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must be http or https: %s", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host: %s", raw)
	}
	return nil
}

package assessment

import (
	"fmt"
	"strings"
)

// Status is the implementation state recorded for a subcategory.
type Status string

const (
	StatusNotImplemented       Status = "Not Implemented"
	StatusPartiallyImplemented Status = "Partially Implemented"
	StatusFullyImplemented     Status = "Fully Implemented"
	StatusNotApplicable        Status = "Not Applicable"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNotImplemented, StatusPartiallyImplemented, StatusFullyImplemented, StatusNotApplicable:
		return true
	}
	return false
}

// Open reports whether the status marks work that is still outstanding.
func (s Status) Open() bool {
	return s == StatusNotImplemented || s == StatusPartiallyImplemented
}

// ParseStatus accepts the canonical spelling as well as lower, upper,
// snake and kebab case variants.
func ParseStatus(raw string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	norm = strings.Join(strings.Fields(norm), " ")
	switch norm {
	case "not implemented":
		return StatusNotImplemented, nil
	case "partially implemented", "partial":
		return StatusPartiallyImplemented, nil
	case "fully implemented", "implemented":
		return StatusFullyImplemented, nil
	case "not applicable", "n/a", "na":
		return StatusNotApplicable, nil
	}
	return "", fmt.Errorf("assessment.ParseStatus: unknown status %q", raw)
}

// UnmarshalText normalises status spellings when decoding JSON or YAML.
// Unknown values are kept verbatim so validation can report them.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		*s = Status(text)
		return nil
	}
	*s = parsed
	return nil
}

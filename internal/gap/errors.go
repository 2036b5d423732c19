package gap

import (
	"fmt"
	"strings"
)

// DanglingReferenceError reports assessments keyed by subcategory ids that
// the taxonomy does not contain. It signals a data-integrity problem in the
// caller's snapshot.
type DanglingReferenceError struct {
	IDs []string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("gap: %d assessment(s) reference unknown subcategories: %s",
		len(e.IDs), strings.Join(e.IDs, ", "))
}

// InvalidScaleError reports a non-positive maximum score.
type InvalidScaleError struct {
	MaxScale float64
}

func (e *InvalidScaleError) Error() string {
	return fmt.Sprintf("gap: max scale must be > 0, got %v", e.MaxScale)
}

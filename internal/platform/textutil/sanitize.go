package textutil

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans customer-supplied free text before it is stored or echoed
// back. All markup is stripped and whitespace collapsed.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer constructs a strict plain-text sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean strips markup from s and collapses runs of whitespace.
func (s *Sanitizer) Clean(input string) string {
	cleaned := s.policy.Sanitize(input)
	cleaned = html.UnescapeString(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}

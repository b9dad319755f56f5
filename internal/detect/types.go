// Package detect defines the contract shared by every format scanner: the
// Finding record, the per-file Result and the error taxonomy.
package detect

import (
	"fmt"
	"unicode/utf8"
)

// SnippetLimit is the maximum number of characters kept in a Finding snippet.
const SnippetLimit = 40

// Scanner inspects a single local file for hidden text.
//
// Implementations must hold no mutable state between calls so that
// independent files can be scanned concurrently.
type Scanner interface {
	Scan(path string) (Result, error)
	Format() string
}

// Finding is one reported occurrence of suspected hidden text.
type Finding struct {
	Location string `json:"location" yaml:"location"`
	Snippet  string `json:"snippet" yaml:"snippet"`
}

// Result is the outcome of a single scan. Found is true if and only if
// Findings is non-empty.
type Result struct {
	Found    bool      `json:"found" yaml:"found"`
	Findings []Finding `json:"findings" yaml:"findings"`
}

// NewResult builds a Result from findings in document order.
func NewResult(findings []Finding) Result {
	if len(findings) == 0 {
		return Result{Found: false, Findings: []Finding{}}
	}
	return Result{Found: true, Findings: findings}
}

// Truncate bounds text to SnippetLimit characters and appends a marker with
// the number of characters that were cut.
func Truncate(text string) string {
	n := utf8.RuneCountInString(text)
	if n <= SnippetLimit {
		return text
	}
	return fmt.Sprintf("%s …+%d more characters", Head(text, SnippetLimit), n-SnippetLimit)
}

// Head returns the first n characters of text without any marker.
func Head(text string, n int) string {
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}

package validator

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/wallarm/contract-firewall/internal/platform/formatter"
)

// Report maps the field name to the invalidity of the field
type Report map[string]*Entry

// Entry is either a leaf with the symbolic message or a nested report of an object or array
type Entry struct {
	Message formatter.Code
	Options map[string]any
	Nested  Report
}

// Invalidity is a leaf of the report with its full key
type Invalidity struct {
	Key     string
	Message formatter.Code
	Options map[string]any
}

func (e *Entry) MarshalJSON() ([]byte, error) {
	if e.Nested != nil {
		return json.Marshal(e.Nested)
	}
	return json.Marshal(e.Message)
}

// Add puts the field error into the report. Keys with "/" separated segments are nested.
func (r Report) Add(fe formatter.FieldError) {

	segments := strings.Split(fe.Key, "/")
	current := r

	for _, segment := range segments[:len(segments)-1] {
		entry, ok := current[segment]
		if !ok || entry.Nested == nil {
			entry = &Entry{Nested: Report{}}
			current[segment] = entry
		}
		current = entry.Nested
	}

	current[segments[len(segments)-1]] = &Entry{
		Message: fe.Message,
		Options: fe.Options,
	}
}

// Merge deep merges the other report into r. The entries of the other report win on collision.
func (r Report) Merge(other Report) {
	for key, entry := range other {
		existing, ok := r[key]
		if ok && existing.Nested != nil && entry.Nested != nil {
			existing.Nested.Merge(entry.Nested)
			continue
		}
		r[key] = entry
	}
}

// Empty reports whether the request has no invalidities
func (r Report) Empty() bool {
	return len(r) == 0
}

// Invalidities returns the leaves of the report sorted by their keys
func (r Report) Invalidities() []Invalidity {
	var result []Invalidity
	r.collect("", &result)

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

func (r Report) collect(prefix string, result *[]Invalidity) {
	for key, entry := range r {
		full := key
		if prefix != "" {
			full = prefix + "/" + key
		}

		if entry.Nested != nil {
			entry.Nested.collect(full, result)
			continue
		}

		*result = append(*result, Invalidity{Key: full, Message: entry.Message, Options: entry.Options})
	}
}

package router

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/wallarm/contract-firewall/internal/platform/contract"
)

var (
	ErrNotFound         = errors.New("path not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Match is the result of the request path resolution. Matches may be shared between
// requests by the cached matcher and must not be modified.
type Match struct {
	Template  string
	Captures  map[string]string
	Operation *contract.Operation
}

// Finder resolves the request verb and path to the declared operation
type Finder interface {
	Lookup(verb, path string) (*Match, error)
}

type pathTemplate struct {
	raw      string
	pattern  *regexp.Regexp
	names    []string
	literals []string
	skeleton string
}

// Matcher selects the best matching path template for the request path. All patterns are
// compiled once and the matcher is safe for concurrent use.
type Matcher struct {
	templates []*pathTemplate
	paths     map[string]map[string]*contract.Operation
}

var _ Finder = (*Matcher)(nil)

// NewMatcher compiles the templates of the path map
func NewMatcher(paths map[string]map[string]*contract.Operation) (*Matcher, error) {

	m := Matcher{
		templates: make([]*pathTemplate, 0, len(paths)),
		paths:     paths,
	}

	for raw := range paths {
		t, err := compileTemplate(raw)
		if err != nil {
			return nil, err
		}
		m.templates = append(m.templates, t)
	}

	// the order of the map iteration must not affect the result
	sort.Slice(m.templates, func(i, j int) bool {
		return m.templates[i].raw < m.templates[j].raw
	})

	return &m, nil
}

// MatchPath compiles the templates and resolves the request path in one call. It returns nil
// when the templates are invalid or the path or the verb is not declared
func MatchPath(paths map[string]map[string]*contract.Operation, path, verb string) *Match {
	m, err := NewMatcher(paths)
	if err != nil {
		return nil
	}
	return m.Match(verb, path)
}

// Match returns the resolved operation or nil if the path or the verb is not declared
func (m *Matcher) Match(verb, path string) *Match {
	match, err := m.Lookup(verb, path)
	if err != nil {
		return nil
	}
	return match
}

// Lookup resolves the request. ErrNotFound is returned when no template matches the path and
// ErrMethodNotAllowed when the winning template does not declare the verb.
func (m *Matcher) Lookup(verb, path string) (*Match, error) {

	var candidates []*pathTemplate
	minCaptures := -1

	for _, t := range m.templates {
		if !t.pattern.MatchString(path) {
			continue
		}

		captures := len(t.names)
		switch {
		case minCaptures == -1 || captures < minCaptures:
			minCaptures = captures
			candidates = []*pathTemplate{t}
		case captures == minCaptures:
			candidates = append(candidates, t)
		}
	}

	if len(candidates) == 0 {
		return nil, ErrNotFound
	}

	winner := candidates[0]
	if len(candidates) > 1 {
		winner = mostSimilar(candidates, path)
	}

	op, ok := m.paths[winner.raw][strings.ToLower(verb)]
	if !ok || op == nil {
		return nil, ErrMethodNotAllowed
	}

	return &Match{
		Template:  winner.raw,
		Captures:  winner.extract(path),
		Operation: op,
	}, nil
}

func (t *pathTemplate) extract(path string) map[string]string {
	captures := make(map[string]string, len(t.names))

	values := t.pattern.FindStringSubmatch(path)
	if len(values) != len(t.names)+1 {
		return captures
	}

	for i, name := range t.names {
		captures[name] = values[i+1]
	}

	return captures
}

// compileTemplate turns every {name} placeholder into a lazy capture group limited to one
// path segment. The pattern is anchored and case-insensitive.
func compileTemplate(raw string) (*pathTemplate, error) {

	var pattern, skeleton strings.Builder
	var names []string

	pattern.WriteString("(?i)^")

	for i := 0; i < len(raw); {
		if raw[i] != '{' {
			end := strings.IndexByte(raw[i:], '{')
			if end == -1 {
				end = len(raw) - i
			}
			literal := raw[i : i+end]
			pattern.WriteString(regexp.QuoteMeta(literal))
			skeleton.WriteString(literal)
			i += end
			continue
		}

		end := strings.IndexByte(raw[i:], '}')
		if end == -1 {
			return nil, fmt.Errorf("unclosed path parameter at position %d in template %q", i, raw)
		}

		name := raw[i+1 : i+end]
		if name == "" {
			return nil, fmt.Errorf("empty path parameter at position %d in template %q", i, raw)
		}

		for _, existing := range names {
			if existing == name {
				return nil, fmt.Errorf("duplicate path parameter %q in template %q", name, raw)
			}
		}

		names = append(names, name)
		pattern.WriteString("([^/]+?)")
		i += end + 1
	}

	pattern.WriteString("$")

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, fmt.Errorf("failed to compile path pattern for template %q: %w", raw, err)
	}

	return &pathTemplate{
		raw:      raw,
		pattern:  re,
		names:    names,
		literals: literalSegments(raw),
		skeleton: skeleton.String(),
	}, nil
}

// literalSegments returns the path segments without placeholders
func literalSegments(raw string) []string {
	var segments []string
	for _, s := range strings.Split(raw, "/") {
		if s == "" || strings.ContainsAny(s, "{}") {
			continue
		}
		segments = append(segments, s)
	}
	return segments
}

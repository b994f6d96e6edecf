package schema

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	EngineKinOpenAPI = "kinopenapi"
	EngineJSONSchema = "jsonschema"

	definitionsRefPrefix = "#/definitions/"
)

var ErrUnknownEngine = errors.New("unknown schema engine")

// Kind is the closed set of constraint kinds a failure is dispatched by
type Kind string

const (
	KindRequired  Kind = "required"
	KindPattern   Kind = "pattern"
	KindMinimum   Kind = "minimum"
	KindMaximum   Kind = "maximum"
	KindMinLength Kind = "minLength"
	KindMaxLength Kind = "maxLength"
	KindType      Kind = "type"
	KindEnum      Kind = "enum"
	KindOther     Kind = "other"
)

// ParseKind maps the keyword reported by an engine to the constraint kind. The comparison
// is case-insensitive and unknown keywords map to KindOther.
func ParseKind(keyword string) Kind {
	switch strings.ToLower(keyword) {
	case "required":
		return KindRequired
	case "pattern":
		return KindPattern
	case "minimum", "exclusiveminimum":
		return KindMinimum
	case "maximum", "exclusivemaximum":
		return KindMaximum
	case "minlength":
		return KindMinLength
	case "maxlength":
		return KindMaxLength
	case "type", "typev4":
		return KindType
	case "enum":
		return KindEnum
	}
	return KindOther
}

// Params holds the constraint values the engine reported with the failure. Zero values
// mean the engine did not expose the value.
type Params struct {
	Property string
	Limit    *float64
	Expected []string
	Enum     []any
}

// Failure is a single raw validation failure of the schema engine
type Failure struct {
	// Fragment points at the failed value, e.g. "#/items/0/name"
	Fragment string
	Kind     Kind
	Keyword  string
	Message  string
	Params   Params
}

// Compiled is a schema ready for the validation
type Compiled interface {
	Validate(value any) []Failure
}

// Engine compiles JSON schemas. The definitions are used to resolve "#/definitions/..."
// references of the schema.
type Engine interface {
	Name() string
	Compile(schema map[string]any, definitions map[string]any) (Compiled, error)
}

// NewEngine returns the engine by its name
func NewEngine(name string) (Engine, error) {
	switch strings.ToLower(name) {
	case "", EngineKinOpenAPI:
		return NewKinOpenAPI(), nil
	case EngineJSONSchema:
		return NewJSONSchema(), nil
	}
	return nil, errors.Wrapf(ErrUnknownEngine, "%q", name)
}

// Fragment builds the failure fragment from the path segments of the failed value
func Fragment(segments []string) string {
	return "#/" + strings.Join(segments, "/")
}

func float64Ptr(v float64) *float64 {
	return &v
}

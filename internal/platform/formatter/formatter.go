package formatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wallarm/contract-firewall/internal/platform/schema"
)

// Code is the symbolic message of the field error. The set of codes is closed.
type Code string

const (
	CodeBlank        Code = "blank"
	CodeInvalid      Code = "invalid"
	CodeGreaterThan  Code = "greater_than"
	CodeLessThan     Code = "less_than"
	CodeTooShort     Code = "too_short"
	CodeTooLong      Code = "too_long"
	CodeNotAnInteger Code = "not_an_integer"
	CodeNotANumber   Code = "not_a_number"
	CodeNotAString   Code = "not_a_string"
	CodeNotABoolean  Code = "not_a_boolean"
	CodeInclusion    Code = "inclusion"
)

// Codes lists every code the formatter produces
var Codes = []Code{
	CodeBlank, CodeInvalid, CodeGreaterThan, CodeLessThan, CodeTooShort, CodeTooLong,
	CodeNotAnInteger, CodeNotANumber, CodeNotAString, CodeNotABoolean, CodeInclusion,
}

const (
	OptionCount = "count"
	OptionList  = "list"

	inSchemaMarker = " in schema"
	valuesMarker   = "values: "
)

// FieldError is the localizable description of a single failed field
type FieldError struct {
	Key     string
	Message Code
	Options map[string]any
}

type formatFunc func(f schema.Failure, fe *FieldError) bool

// Formatter turns raw schema failures into field errors. It is safe for concurrent use.
type Formatter struct {
	logger      zerolog.Logger
	handlers    map[schema.Kind]formatFunc
	unformatted func(f schema.Failure)
}

type Option func(*Formatter)

// WithUnformattedHook sets the function called for every failure the formatter does not
// recognize, e.g. to count them
func WithUnformattedHook(fn func(f schema.Failure)) Option {
	return func(fm *Formatter) {
		fm.unformatted = fn
	}
}

func New(logger zerolog.Logger, opts ...Option) *Formatter {

	fm := Formatter{
		logger: logger,
		handlers: map[schema.Kind]formatFunc{
			schema.KindRequired:  formatRequired,
			schema.KindPattern:   formatPattern,
			schema.KindMinimum:   formatBound(CodeGreaterThan),
			schema.KindMaximum:   formatBound(CodeLessThan),
			schema.KindMinLength: formatLength(CodeTooShort),
			schema.KindMaxLength: formatLength(CodeTooLong),
			schema.KindType:      formatType,
			schema.KindEnum:      formatEnum,
		},
	}

	for _, opt := range opts {
		opt(&fm)
	}

	return &fm
}

// FormatAll formats the failures keeping their order
func (fm *Formatter) FormatAll(failures []schema.Failure) []FieldError {
	result := make([]FieldError, 0, len(failures))
	for _, f := range failures {
		result = append(result, fm.Format(f))
	}
	return result
}

// Format returns the field error of the failure. Failures of unknown kinds or with
// unexpected messages are reported as invalid.
func (fm *Formatter) Format(f schema.Failure) (fe FieldError) {

	defer func() {
		if r := recover(); r != nil {
			fm.logger.Error().
				Interface("panic", r).
				Str("kind", string(f.Kind)).
				Str("message", f.Message).
				Msg("schema error formatting failed")
			fe = FieldError{Key: DefaultKey(f.Fragment), Message: CodeInvalid}
		}
	}()

	fe = FieldError{Key: DefaultKey(f.Fragment)}

	if handler, ok := fm.handlers[f.Kind]; ok && handler(f, &fe) {
		return fe
	}

	fm.logger.Warn().
		Str("kind", string(f.Kind)).
		Str("keyword", f.Keyword).
		Str("fragment", f.Fragment).
		Str("message", f.Message).
		Msg("unformatted schema error")

	if fm.unformatted != nil {
		fm.unformatted(f)
	}

	return FieldError{Key: DefaultKey(f.Fragment), Message: CodeInvalid}
}

// DefaultKey is the fragment without the "#/" prefix
func DefaultKey(fragment string) string {
	return strings.TrimPrefix(strings.TrimPrefix(fragment, "#"), "/")
}

func formatRequired(f schema.Failure, fe *FieldError) bool {

	name := f.Params.Property
	if name == "" {
		// did not contain a required property of 'name' in schema ...
		text, ok := beforeInSchema(f.Message)
		if !ok {
			return false
		}
		name = lastQuoted(text)
		if name == "" {
			name = strings.Trim(lastToken(text), `'"`)
		}
	}

	if name == "" {
		return false
	}

	if fe.Key != "" {
		fe.Key += "/" + name
	} else {
		fe.Key = name
	}
	fe.Message = CodeBlank

	return true
}

func formatPattern(_ schema.Failure, fe *FieldError) bool {
	fe.Message = CodeInvalid
	return true
}

func formatBound(code Code) formatFunc {
	return func(f schema.Failure, fe *FieldError) bool {

		limit := f.Params.Limit
		if limit == nil {
			// did not have a minimum value of 5, inclusively in schema ...
			text, ok := cutAny(f.Message, ", inclusively", "exclusively in schema")
			if !ok {
				return false
			}
			parsed, err := strconv.ParseFloat(strings.TrimSuffix(lastToken(text), ","), 64)
			if err != nil {
				return false
			}
			limit = &parsed
		}

		fe.Message = code
		fe.Options = map[string]any{OptionCount: count(*limit)}

		return true
	}
}

func formatLength(code Code) formatFunc {
	return func(f schema.Failure, fe *FieldError) bool {

		limit := f.Params.Limit
		if limit == nil {
			// was not of a minimum string length of 1 in schema ...
			text, ok := beforeInSchema(f.Message)
			if !ok {
				return false
			}
			parsed, err := strconv.ParseFloat(lastToken(text), 64)
			if err != nil {
				return false
			}
			limit = &parsed
		}

		fe.Message = code
		fe.Options = map[string]any{OptionCount: count(*limit)}

		return true
	}
}

var typeCodes = map[string]Code{
	"integer": CodeNotAnInteger,
	"number":  CodeNotANumber,
	"string":  CodeNotAString,
	"boolean": CodeNotABoolean,
}

func formatType(f schema.Failure, fe *FieldError) bool {

	var name string
	switch {
	case len(f.Params.Expected) == 1:
		name = f.Params.Expected[0]
	case len(f.Params.Expected) > 1:
		// several types can not be described with one code
		fe.Message = CodeInvalid
		return true
	default:
		// did not match the following type: string in schema ...
		text, ok := beforeInSchema(f.Message)
		if !ok {
			return false
		}
		name = lastToken(text)
	}

	fe.Message = CodeInvalid
	if code, ok := typeCodes[strings.ToLower(name)]; ok {
		fe.Message = code
	}

	return true
}

func formatEnum(f schema.Failure, fe *FieldError) bool {

	var list string
	if len(f.Params.Enum) > 0 {
		values := make([]string, 0, len(f.Params.Enum))
		for _, v := range f.Params.Enum {
			values = append(values, fmt.Sprint(v))
		}
		list = strings.Join(values, ", ")
	} else {
		// did not match one of the following values: a, b, c in schema ...
		text, ok := beforeInSchema(f.Message)
		if !ok {
			text = f.Message
		}
		idx := strings.LastIndex(text, valuesMarker)
		if idx == -1 {
			return false
		}
		list = text[idx+len(valuesMarker):]
	}

	fe.Message = CodeInclusion
	fe.Options = map[string]any{OptionList: list}

	return true
}

func beforeInSchema(message string) (string, bool) {
	return cutAny(message, inSchemaMarker)
}

// cutAny returns the message part before the first found separator
func cutAny(message string, separators ...string) (string, bool) {
	for _, sep := range separators {
		if before, _, found := strings.Cut(message, sep); found {
			return before, true
		}
	}
	return "", false
}

func lastToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func lastQuoted(text string) string {
	end := strings.LastIndexByte(text, '\'')
	if end <= 0 {
		return ""
	}
	start := strings.LastIndexByte(text[:end], '\'')
	if start == -1 {
		return ""
	}
	return text[start+1 : end]
}

// count keeps whole limits integral so they are rendered without the fraction
func count(limit float64) any {
	if limit == math.Trunc(limit) && math.Abs(limit) < math.MaxInt64 {
		return int(limit)
	}
	return limit
}

package schema

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const jsonSchemaResource = "mem://contract/schema.json"

var quotedNameRegex = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'`)

// JSONSchema validates values with a draft 4 JSON schema validator
type JSONSchema struct{}

var _ Engine = (*JSONSchema)(nil)

func NewJSONSchema() *JSONSchema {
	return &JSONSchema{}
}

func (j *JSONSchema) Name() string {
	return EngineJSONSchema
}

func (j *JSONSchema) Compile(raw map[string]any, definitions map[string]any) (Compiled, error) {

	root := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		root[k] = v
	}
	if len(definitions) > 0 {
		root["definitions"] = definitions
	}

	doc, err := normalize(root)
	if err != nil {
		return nil, errors.Wrap(err, "schema")
	}
	dropEmptyRequired(doc)

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "schema")
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft4

	if err := compiler.AddResource(jsonSchemaResource, bytes.NewReader(data)); err != nil {
		return nil, errors.Wrap(err, "schema")
	}

	s, err := compiler.Compile(jsonSchemaResource)
	if err != nil {
		return nil, errors.Wrap(err, "schema")
	}

	return &jsonSchemaCompiled{schema: s, doc: doc}, nil
}

type jsonSchemaCompiled struct {
	schema *jsonschema.Schema
	doc    any
}

func (c *jsonSchemaCompiled) Validate(value any) []Failure {

	instance, err := normalize(value)
	if err != nil {
		return []Failure{{Fragment: Fragment(nil), Kind: KindOther, Message: err.Error()}}
	}

	err = c.schema.Validate(instance)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Failure{{Fragment: Fragment(nil), Kind: KindOther, Message: err.Error()}}
	}

	var failures []Failure
	for _, leaf := range leaves(ve) {
		failures = append(failures, c.failures(leaf)...)
	}

	return failures
}

func (c *jsonSchemaCompiled) failures(ve *jsonschema.ValidationError) []Failure {

	keyword := lastToken(ve.KeywordLocation)

	f := Failure{
		Fragment: Fragment(pointerTokens(ve.InstanceLocation)),
		Kind:     ParseKind(keyword),
		Keyword:  keyword,
		Message:  ve.Message,
	}

	node, _ := c.keywordParent(ve.AbsoluteKeywordLocation).(map[string]any)

	switch f.Kind {
	case KindRequired:
		// one message lists all missing properties
		var failures []Failure
		for _, m := range quotedNameRegex.FindAllStringSubmatch(ve.Message, -1) {
			required := f
			required.Params.Property = strings.ReplaceAll(m[1], `\'`, `'`)
			failures = append(failures, required)
		}
		if len(failures) > 0 {
			return failures
		}
	case KindMinimum:
		f.Params.Limit = number(node["minimum"])
	case KindMaximum:
		f.Params.Limit = number(node["maximum"])
	case KindMinLength:
		f.Params.Limit = number(node["minLength"])
	case KindMaxLength:
		f.Params.Limit = number(node["maxLength"])
	case KindType:
		switch t := node["type"].(type) {
		case string:
			f.Params.Expected = []string{t}
		case []any:
			for _, v := range t {
				if s, ok := v.(string); ok {
					f.Params.Expected = append(f.Params.Expected, s)
				}
			}
		}
	case KindEnum:
		if enum, ok := node["enum"].([]any); ok {
			f.Params.Enum = enum
		}
	}

	return []Failure{f}
}

// keywordParent returns the schema node that holds the failed keyword
func (c *jsonSchemaCompiled) keywordParent(location string) any {

	idx := strings.LastIndexByte(location, '#')
	if idx == -1 {
		return nil
	}

	tokens := pointerTokens(location[idx+1:])
	if len(tokens) == 0 {
		return nil
	}

	node := c.doc
	for _, token := range tokens[:len(tokens)-1] {
		switch n := node.(type) {
		case map[string]any:
			node = n[token]
		default:
			return nil
		}
	}

	return node
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}

	var result []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		result = append(result, leaves(cause)...)
	}

	return result
}

// pointerTokens splits the escaped JSON pointer into its reference tokens
func pointerTokens(pointer string) []string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return nil
	}

	tokens := strings.Split(pointer, "/")
	for i, token := range tokens {
		if unescaped, err := url.PathUnescape(token); err == nil {
			token = unescaped
		}
		token = strings.ReplaceAll(token, "~1", "/")
		tokens[i] = strings.ReplaceAll(token, "~0", "~")
	}

	return tokens
}

func lastToken(pointer string) string {
	tokens := pointerTokens(pointer)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

// normalize converts the value to the plain JSON representation the validator expects
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var result any
	if err := decoder.Decode(&result); err != nil {
		return nil, err
	}

	return result, nil
}

// dropEmptyRequired removes the "required" keywords without names which draft 4 forbids
func dropEmptyRequired(node any) {
	switch n := node.(type) {
	case map[string]any:
		if required, ok := n["required"].([]any); ok && len(required) == 0 {
			delete(n, "required")
		}
		for _, v := range n {
			dropEmptyRequired(v)
		}
	case []any:
		for _, v := range n {
			dropEmptyRequired(v)
		}
	}
}

func number(v any) *float64 {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		return &f
	case float64:
		return &n
	}
	return nil
}

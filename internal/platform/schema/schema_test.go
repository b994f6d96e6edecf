package schema

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var itemSchema = map[string]any{
	"type":     "object",
	"required": []any{"name", "price"},
	"properties": map[string]any{
		"name": map[string]any{
			"type":      "string",
			"minLength": 2,
			"maxLength": 5,
		},
		"price": map[string]any{
			"type":    "number",
			"minimum": 1,
		},
		"stock": map[string]any{
			"type":             "integer",
			"maximum":          10,
			"exclusiveMaximum": true,
		},
		"color": map[string]any{
			"type": "string",
			"enum": []any{"red", "green"},
		},
		"code": map[string]any{
			"type":    "string",
			"pattern": "^[a-z]+$",
		},
		"owner": map[string]any{
			"$ref": "#/definitions/Owner",
		},
	},
}

var definitions = map[string]any{
	"Owner": map[string]any{
		"type":     "object",
		"required": []any{"id"},
		"properties": map[string]any{
			"id": map[string]any{"type": "integer"},
		},
	},
}

func engines(t *testing.T) []Engine {
	var result []Engine
	for _, name := range []string{EngineKinOpenAPI, EngineJSONSchema} {
		e, err := NewEngine(name)
		require.NoError(t, err)
		require.Equal(t, name, e.Name())
		result = append(result, e)
	}
	return result
}

func sortFailures(failures []Failure) {
	sort.Slice(failures, func(i, j int) bool {
		if failures[i].Fragment != failures[j].Fragment {
			return failures[i].Fragment < failures[j].Fragment
		}
		return failures[i].Params.Property < failures[j].Params.Property
	})
}

func TestEngines(t *testing.T) {

	tests := []struct {
		name   string
		value  map[string]any
		checks func(t *testing.T, failures []Failure)
	}{
		{
			name:  "valid value",
			value: map[string]any{"name": "ab", "price": 1.5, "stock": int64(9), "owner": map[string]any{"id": int64(1)}},
			checks: func(t *testing.T, failures []Failure) {
				assert.Empty(t, failures)
			},
		},
		{
			name:  "missing properties",
			value: map[string]any{},
			checks: func(t *testing.T, failures []Failure) {
				require.Len(t, failures, 2)
				for _, f := range failures {
					assert.Equal(t, KindRequired, f.Kind)
					assert.Equal(t, "#/", f.Fragment)
				}
				assert.Equal(t, "name", failures[0].Params.Property)
				assert.Equal(t, "price", failures[1].Params.Property)
			},
		},
		{
			name:  "minimum",
			value: map[string]any{"name": "ab", "price": int64(0)},
			checks: func(t *testing.T, failures []Failure) {
				require.Len(t, failures, 1)
				assert.Equal(t, KindMinimum, failures[0].Kind)
				assert.Equal(t, "#/price", failures[0].Fragment)
				require.NotNil(t, failures[0].Params.Limit)
				assert.Equal(t, 1.0, *failures[0].Params.Limit)
			},
		},
		{
			name:  "exclusive maximum",
			value: map[string]any{"name": "ab", "price": int64(2), "stock": int64(10)},
			checks: func(t *testing.T, failures []Failure) {
				require.Len(t, failures, 1)
				assert.Equal(t, KindMaximum, failures[0].Kind)
				assert.Equal(t, "#/stock", failures[0].Fragment)
				require.NotNil(t, failures[0].Params.Limit)
				assert.Equal(t, 10.0, *failures[0].Params.Limit)
			},
		},
		{
			name:  "string lengths",
			value: map[string]any{"name": "abcdef", "price": int64(2)},
			checks: func(t *testing.T, failures []Failure) {
				require.Len(t, failures, 1)
				assert.Equal(t, KindMaxLength, failures[0].Kind)
				require.NotNil(t, failures[0].Params.Limit)
				assert.Equal(t, 5.0, *failures[0].Params.Limit)
			},
		},
		{
			name:  "type",
			value: map[string]any{"name": "ab", "price": "cheap"},
			checks: func(t *testing.T, failures []Failure) {
				require.Len(t, failures, 1)
				assert.Equal(t, KindType, failures[0].Kind)
				assert.Equal(t, "#/price", failures[0].Fragment)
				assert.Equal(t, []string{"number"}, failures[0].Params.Expected)
			},
		},
		{
			name:  "enum",
			value: map[string]any{"name": "ab", "price": int64(2), "color": "blue"},
			checks: func(t *testing.T, failures []Failure) {
				require.Len(t, failures, 1)
				assert.Equal(t, KindEnum, failures[0].Kind)
				assert.Equal(t, "#/color", failures[0].Fragment)
				assert.Equal(t, []any{"red", "green"}, failures[0].Params.Enum)
			},
		},
		{
			name:  "pattern",
			value: map[string]any{"name": "ab", "price": int64(2), "code": "A1"},
			checks: func(t *testing.T, failures []Failure) {
				require.Len(t, failures, 1)
				assert.Equal(t, KindPattern, failures[0].Kind)
				assert.Equal(t, "#/code", failures[0].Fragment)
			},
		},
		{
			name:  "referenced definition",
			value: map[string]any{"name": "ab", "price": int64(2), "owner": map[string]any{}},
			checks: func(t *testing.T, failures []Failure) {
				require.Len(t, failures, 1)
				assert.Equal(t, KindRequired, failures[0].Kind)
				assert.Equal(t, "#/owner", failures[0].Fragment)
				assert.Equal(t, "id", failures[0].Params.Property)
			},
		},
	}

	for _, e := range engines(t) {
		compiled, err := e.Compile(itemSchema, definitions)
		require.NoError(t, err)

		for _, tt := range tests {
			t.Run(e.Name()+"/"+tt.name, func(t *testing.T) {
				failures := compiled.Validate(tt.value)
				sortFailures(failures)
				tt.checks(t, failures)
			})
		}
	}
}

func TestCompileErrors(t *testing.T) {

	for _, e := range engines(t) {
		t.Run(e.Name(), func(t *testing.T) {
			_, err := e.Compile(map[string]any{
				"type":       "object",
				"properties": map[string]any{"a": map[string]any{"$ref": "#/definitions/Missing"}},
			}, nil)
			require.Error(t, err)
		})
	}
}

func TestRecursiveDefinition(t *testing.T) {

	defs := map[string]any{
		"Node": map[string]any{
			"type":     "object",
			"required": []any{"value"},
			"properties": map[string]any{
				"value": map[string]any{"type": "integer"},
				"next":  map[string]any{"$ref": "#/definitions/Node"},
			},
		},
	}

	for _, e := range engines(t) {
		t.Run(e.Name(), func(t *testing.T) {
			compiled, err := e.Compile(map[string]any{"$ref": "#/definitions/Node"}, defs)
			require.NoError(t, err)

			failures := compiled.Validate(map[string]any{
				"value": int64(1),
				"next":  map[string]any{"next": map[string]any{"value": int64(3)}},
			})
			require.Len(t, failures, 1)
			assert.Equal(t, KindRequired, failures[0].Kind)
			assert.Equal(t, "#/next", failures[0].Fragment)
			assert.Equal(t, "value", failures[0].Params.Property)
		})
	}
}

func TestParseKind(t *testing.T) {

	tests := map[string]Kind{
		"required":         KindRequired,
		"Pattern":          KindPattern,
		"minimum":          KindMinimum,
		"exclusiveMinimum": KindMinimum,
		"MAXIMUM":          KindMaximum,
		"exclusiveMaximum": KindMaximum,
		"minLength":        KindMinLength,
		"maxLength":        KindMaxLength,
		"typeV4":           KindType,
		"enum":             KindEnum,
		"format":           KindOther,
		"":                 KindOther,
	}

	for keyword, kind := range tests {
		assert.Equal(t, kind, ParseKind(keyword), keyword)
	}
}

func TestNewEngineUnknown(t *testing.T) {
	_, err := NewEngine("xml")
	require.ErrorIs(t, err, ErrUnknownEngine)
}

func TestFragment(t *testing.T) {
	assert.Equal(t, "#/", Fragment(nil))
	assert.Equal(t, "#/items/0/name", Fragment([]string{"items", "0", "name"}))
}

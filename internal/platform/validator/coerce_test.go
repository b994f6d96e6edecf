package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wallarm/contract-firewall/internal/platform/contract"
)

func TestCoerce(t *testing.T) {

	tests := []struct {
		name string
		raw  any
		typ  string
		want any
	}{
		{name: "integer", raw: "5", typ: "integer", want: int64(5)},
		{name: "negative integer", raw: "-12", typ: "integer", want: int64(-12)},
		{name: "not an integer", raw: "abc", typ: "integer", want: "abc"},
		{name: "fraction is not an integer", raw: "1.5", typ: "integer", want: "1.5"},
		{name: "integer overflow", raw: "99999999999999999999", typ: "integer", want: "99999999999999999999"},
		{name: "number", raw: "1.25", typ: "number", want: 1.25},
		{name: "whole number", raw: "-3", typ: "number", want: -3.0},
		{name: "not a number", raw: "1e5", typ: "number", want: "1e5"},
		{name: "boolean yes", raw: "YES", typ: "boolean", want: true},
		{name: "boolean t", raw: "t", typ: "boolean", want: true},
		{name: "boolean 0", raw: "0", typ: "boolean", want: false},
		{name: "boolean no", raw: "No", typ: "boolean", want: false},
		{name: "not a boolean", raw: "maybe", typ: "boolean", want: "maybe"},
		{name: "string", raw: "5", typ: "string", want: "5"},
		{name: "no type", raw: "5", typ: "", want: "5"},
		{name: "typed value", raw: int64(5), typ: "integer", want: int64(5)},
		{name: "typed boolean", raw: true, typ: "boolean", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.raw, tt.typ))
		})
	}
}

func TestCoerceIdempotence(t *testing.T) {
	for _, typ := range []string{"integer", "number", "boolean", "string"} {
		for _, raw := range []string{"5", "2.5", "yes", "abc"} {
			once := Coerce(raw, typ)
			assert.Equal(t, once, Coerce(once, typ), "%s %s", typ, raw)
		}
	}
}

func TestCoerceParameter(t *testing.T) {

	integers := map[string]any{"type": "integer"}

	tests := []struct {
		name  string
		param *contract.Parameter
		raw   any
		want  any
	}{
		{
			name:  "csv by default",
			param: &contract.Parameter{Type: "array", Items: integers},
			raw:   "1,2,x",
			want:  []any{int64(1), int64(2), "x"},
		},
		{
			name:  "ssv",
			param: &contract.Parameter{Type: "array", CollectionFormat: "ssv"},
			raw:   "a b",
			want:  []any{"a", "b"},
		},
		{
			name:  "tsv",
			param: &contract.Parameter{Type: "array", CollectionFormat: "tsv"},
			raw:   "a\tb",
			want:  []any{"a", "b"},
		},
		{
			name:  "pipes",
			param: &contract.Parameter{Type: "array", CollectionFormat: "pipes", Items: map[string]any{"type": "boolean"}},
			raw:   "yes|no",
			want:  []any{true, false},
		},
		{
			name:  "multi",
			param: &contract.Parameter{Type: "array", CollectionFormat: "multi", Items: integers},
			raw:   []string{"1", "2"},
			want:  []any{int64(1), int64(2)},
		},
		{
			name:  "single value of a slice is split",
			param: &contract.Parameter{Type: "array"},
			raw:   []string{"a,b"},
			want:  []any{"a", "b"},
		},
		{
			name:  "empty array",
			param: &contract.Parameter{Type: "array"},
			raw:   "",
			want:  []any{},
		},
		{
			name:  "scalar",
			param: &contract.Parameter{Type: "number"},
			raw:   "2.5",
			want:  2.5,
		},
		{
			name:  "already an array",
			param: &contract.Parameter{Type: "array"},
			raw:   []any{"a"},
			want:  []any{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceParameter(tt.raw, tt.param))
		})
	}
}

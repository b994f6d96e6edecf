package formatter

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallarm/contract-firewall/internal/platform/schema"
)

func limit(v float64) *float64 {
	return &v
}

func TestFormat(t *testing.T) {

	tests := []struct {
		name    string
		failure schema.Failure
		want    FieldError
	}{
		{
			name: "required from message",
			failure: schema.Failure{
				Fragment: "#/",
				Kind:     schema.KindRequired,
				Message:  "did not contain a required property of 'name' in schema 8c3f6b",
			},
			want: FieldError{Key: "name", Message: CodeBlank},
		},
		{
			name: "required from params with nested parent",
			failure: schema.Failure{
				Fragment: "#/owner",
				Kind:     schema.KindRequired,
				Message:  `property "id" is missing`,
				Params:   schema.Params{Property: "id"},
			},
			want: FieldError{Key: "owner/id", Message: CodeBlank},
		},
		{
			name: "minimum from message",
			failure: schema.Failure{
				Fragment: "#/age",
				Kind:     schema.KindMinimum,
				Message:  "did not have a minimum value of 5, inclusively in schema 8c3f6b",
			},
			want: FieldError{Key: "age", Message: CodeGreaterThan, Options: map[string]any{"count": 5}},
		},
		{
			name: "exclusive minimum from message",
			failure: schema.Failure{
				Fragment: "#/age",
				Kind:     schema.KindMinimum,
				Message:  "did not have a minimum value of 5, exclusively in schema 8c3f6b",
			},
			want: FieldError{Key: "age", Message: CodeGreaterThan, Options: map[string]any{"count": 5}},
		},
		{
			name: "maximum from params",
			failure: schema.Failure{
				Fragment: "#/age",
				Kind:     schema.KindMaximum,
				Params:   schema.Params{Limit: limit(10)},
			},
			want: FieldError{Key: "age", Message: CodeLessThan, Options: map[string]any{"count": 10}},
		},
		{
			name: "fractional limit",
			failure: schema.Failure{
				Fragment: "#/price",
				Kind:     schema.KindMinimum,
				Params:   schema.Params{Limit: limit(0.5)},
			},
			want: FieldError{Key: "price", Message: CodeGreaterThan, Options: map[string]any{"count": 0.5}},
		},
		{
			name: "min length from message",
			failure: schema.Failure{
				Fragment: "#/name",
				Kind:     schema.KindMinLength,
				Message:  "was not of a minimum string length of 3 in schema 8c3f6b",
			},
			want: FieldError{Key: "name", Message: CodeTooShort, Options: map[string]any{"count": 3}},
		},
		{
			name: "max length from params",
			failure: schema.Failure{
				Fragment: "#/name",
				Kind:     schema.KindMaxLength,
				Params:   schema.Params{Limit: limit(8)},
			},
			want: FieldError{Key: "name", Message: CodeTooLong, Options: map[string]any{"count": 8}},
		},
		{
			name: "pattern",
			failure: schema.Failure{
				Fragment: "#/items/0/code",
				Kind:     schema.KindPattern,
			},
			want: FieldError{Key: "items/0/code", Message: CodeInvalid},
		},
		{
			name: "type from params",
			failure: schema.Failure{
				Fragment: "#/id",
				Kind:     schema.KindType,
				Params:   schema.Params{Expected: []string{"integer"}},
			},
			want: FieldError{Key: "id", Message: CodeNotAnInteger},
		},
		{
			name: "type from message",
			failure: schema.Failure{
				Fragment: "#/flag",
				Kind:     schema.KindType,
				Message:  "did not match the following type: boolean in schema 8c3f6b",
			},
			want: FieldError{Key: "flag", Message: CodeNotABoolean},
		},
		{
			name: "type without code",
			failure: schema.Failure{
				Fragment: "#/tags",
				Kind:     schema.KindType,
				Params:   schema.Params{Expected: []string{"array"}},
			},
			want: FieldError{Key: "tags", Message: CodeInvalid},
		},
		{
			name: "enum from params",
			failure: schema.Failure{
				Fragment: "#/color",
				Kind:     schema.KindEnum,
				Params:   schema.Params{Enum: []any{"red", "green", 3}},
			},
			want: FieldError{Key: "color", Message: CodeInclusion, Options: map[string]any{"list": "red, green, 3"}},
		},
		{
			name: "enum from message",
			failure: schema.Failure{
				Fragment: "#/color",
				Kind:     schema.KindEnum,
				Message:  "did not match one of the following values: red, green in schema 8c3f6b",
			},
			want: FieldError{Key: "color", Message: CodeInclusion, Options: map[string]any{"list": "red, green"}},
		},
		{
			name: "enum from message without schema suffix",
			failure: schema.Failure{
				Fragment: "#/color",
				Kind:     schema.KindEnum,
				Message:  "value is not one of the allowed values: red, green",
			},
			want: FieldError{Key: "color", Message: CodeInclusion, Options: map[string]any{"list": "red, green"}},
		},
	}

	fm := New(zerolog.Nop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fm.Format(tt.failure))
		})
	}
}

func TestFormatUnrecognized(t *testing.T) {

	tests := []struct {
		name    string
		failure schema.Failure
	}{
		{
			name:    "unknown kind",
			failure: schema.Failure{Fragment: "#/tags", Kind: schema.KindOther, Keyword: "minItems", Message: "too few items"},
		},
		{
			name:    "kind outside the table",
			failure: schema.Failure{Fragment: "#/tags", Kind: schema.Kind("uniqueItems")},
		},
		{
			name:    "minimum without a number",
			failure: schema.Failure{Fragment: "#/tags", Kind: schema.KindMinimum, Message: "too small"},
		},
		{
			name:    "required without a name",
			failure: schema.Failure{Fragment: "#/tags", Kind: schema.KindRequired, Message: "nothing here"},
		},
		{
			name:    "length with broken count",
			failure: schema.Failure{Fragment: "#/tags", Kind: schema.KindMaxLength, Message: "was not short in schema 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {

			var buf bytes.Buffer
			var hooked []schema.Failure

			fm := New(zerolog.New(&buf), WithUnformattedHook(func(f schema.Failure) {
				hooked = append(hooked, f)
			}))

			var fe FieldError
			require.NotPanics(t, func() {
				fe = fm.Format(tt.failure)
			})

			assert.Equal(t, FieldError{Key: "tags", Message: CodeInvalid}, fe)
			assert.Contains(t, buf.String(), "unformatted schema error")
			assert.Contains(t, buf.String(), `"level":"warn"`)
			assert.Equal(t, []schema.Failure{tt.failure}, hooked)
		})
	}
}

func TestFormatAllKeepsOrder(t *testing.T) {

	failures := []schema.Failure{
		{Fragment: "#/b", Kind: schema.KindPattern},
		{Fragment: "#/", Kind: schema.KindRequired, Params: schema.Params{Property: "a"}},
		{Fragment: "#/c", Kind: schema.KindOther},
	}

	result := New(zerolog.Nop()).FormatAll(failures)
	require.Len(t, result, 3)
	assert.Equal(t, "b", result[0].Key)
	assert.Equal(t, "a", result[1].Key)
	assert.Equal(t, CodeBlank, result[1].Message)
	assert.Equal(t, "c", result[2].Key)
	assert.Equal(t, CodeInvalid, result[2].Message)

	assert.Empty(t, New(zerolog.Nop()).FormatAll(nil))
}

func TestFormatRecoversFromPanics(t *testing.T) {

	fm := New(zerolog.Nop(), WithUnformattedHook(func(schema.Failure) {
		panic("hook failed")
	}))

	var fe FieldError
	require.NotPanics(t, func() {
		fe = fm.Format(schema.Failure{Fragment: "#/x", Kind: schema.KindOther})
	})
	assert.Equal(t, FieldError{Key: "x", Message: CodeInvalid}, fe)
}

func TestDefaultKey(t *testing.T) {
	assert.Equal(t, "", DefaultKey("#/"))
	assert.Equal(t, "", DefaultKey(""))
	assert.Equal(t, "age", DefaultKey("#/age"))
	assert.Equal(t, "items/0/name", DefaultKey("#/items/0/name"))
}

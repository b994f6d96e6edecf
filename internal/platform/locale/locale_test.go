package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/wallarm/contract-firewall/internal/platform/formatter"
)

func TestTranslatorFor(t *testing.T) {

	tr, err := NewTranslator("en")
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "de"}, tr.Languages())

	tests := []struct {
		name        string
		preferences []string
		want        language.Tag
	}{
		{name: "no preferences", want: language.English},
		{name: "exact tag", preferences: []string{"de"}, want: language.German},
		{name: "regional variant", preferences: []string{"de-CH"}, want: language.German},
		{name: "accept language header", preferences: []string{"fr;q=0.9, de;q=0.8"}, want: language.German},
		{name: "unsupported language", preferences: []string{"ja"}, want: language.English},
		{name: "broken value", preferences: []string{";;;"}, want: language.English},
		{name: "first preference wins", preferences: []string{"", "en", "de"}, want: language.English},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.For(tt.preferences...).Language)
		})
	}
}

func TestRender(t *testing.T) {

	tr, err := NewTranslator("en")
	require.NoError(t, err)

	en := tr.For("en")
	assert.Equal(t, "can't be blank", en.Render(formatter.CodeBlank, nil))
	assert.Equal(t, "must be greater than 5", en.Render(formatter.CodeGreaterThan, map[string]any{"count": 5}))
	assert.Equal(t, "is not included in the list (red, green)", en.Render(formatter.CodeInclusion, map[string]any{"list": "red, green"}))
	assert.Equal(t, "must be less than %{count}", en.Render(formatter.CodeLessThan, nil))
	assert.Equal(t, "unknown_code", en.Render(formatter.Code("unknown_code"), nil))

	de := tr.For("de")
	assert.Equal(t, "muss größer als 5 sein", de.Render(formatter.CodeGreaterThan, map[string]any{"count": 5}))
	assert.Equal(t, "ist zu lang (nicht mehr als 0.5 Zeichen)", de.Render(formatter.CodeTooLong, map[string]any{"count": 0.5}))
}

func TestCatalogsCoverAllCodes(t *testing.T) {

	tr, err := NewTranslator("de")
	require.NoError(t, err)

	for _, lang := range tr.Languages() {
		messages := tr.For(lang)
		for _, code := range formatter.Codes {
			assert.NotEqual(t, string(code), messages.Render(code, nil), "%s: %s", lang, code)
		}
	}
}

func TestNewTranslatorUnknownLanguage(t *testing.T) {

	_, err := NewTranslator("fr")
	require.ErrorIs(t, err, ErrUnknownLanguage)

	_, err = NewTranslator("not a language")
	require.ErrorIs(t, err, ErrUnknownLanguage)
}

package locale

import (
	"embed"
	"fmt"
	"path"
	"regexp"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/wallarm/contract-firewall/internal/platform/formatter"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

var (
	ErrUnknownLanguage = errors.New("unknown language")

	placeholderRegex = regexp.MustCompile(`%\{(\w+)\}`)
)

type catalogFile map[string]struct {
	Errors struct {
		Messages map[string]string `yaml:"messages"`
	} `yaml:"errors"`
}

// Messages renders the codes in one language
type Messages struct {
	Language language.Tag
	table    map[formatter.Code]string
}

// Render returns the message of the code with the %{name} placeholders replaced by the
// options. Codes missing in the catalog are returned as is.
func (m Messages) Render(code formatter.Code, options map[string]any) string {

	text, ok := m.table[code]
	if !ok {
		return string(code)
	}

	return placeholderRegex.ReplaceAllStringFunc(text, func(placeholder string) string {
		name := placeholderRegex.FindStringSubmatch(placeholder)[1]
		if v, ok := options[name]; ok {
			return fmt.Sprint(v)
		}
		return placeholder
	})
}

// Translator selects the catalog for the languages preferred by the client. It is
// immutable and safe for concurrent use.
type Translator struct {
	matcher  language.Matcher
	messages []Messages
}

// NewTranslator loads the embedded catalogs. The default language is used when none of the
// preferred languages is supported.
func NewTranslator(defaultLanguage string) (*Translator, error) {

	def, err := language.Parse(defaultLanguage)
	if err != nil {
		return nil, errors.Wrapf(ErrUnknownLanguage, "%q", defaultLanguage)
	}

	all, err := loadCatalogs()
	if err != nil {
		return nil, err
	}

	t := Translator{}
	defIndex := -1
	for i, m := range all {
		if m.Language == def {
			defIndex = i
		}
	}
	if defIndex == -1 {
		return nil, errors.Wrapf(ErrUnknownLanguage, "%q", defaultLanguage)
	}

	// the first tag of the matcher is the fallback
	t.messages = append(t.messages, all[defIndex])
	t.messages = append(t.messages, all[:defIndex]...)
	t.messages = append(t.messages, all[defIndex+1:]...)

	tags := make([]language.Tag, 0, len(t.messages))
	for _, m := range t.messages {
		tags = append(tags, m.Language)
	}
	t.matcher = language.NewMatcher(tags)

	return &t, nil
}

// Languages returns the supported languages, the default one first
func (t *Translator) Languages() []string {
	result := make([]string, 0, len(t.messages))
	for _, m := range t.messages {
		result = append(result, m.Language.String())
	}
	return result
}

// For returns the messages of the best supported language. Every preference is either a
// language tag or an Accept-Language header value.
func (t *Translator) For(preferences ...string) Messages {

	var desired []language.Tag
	for _, p := range preferences {
		if p == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		desired = append(desired, tags...)
	}

	_, index, _ := t.matcher.Match(desired...)
	if index < 0 || index >= len(t.messages) {
		index = 0
	}

	return t.messages[index]
}

func loadCatalogs() ([]Messages, error) {

	files, err := catalogFS.ReadDir("catalogs")
	if err != nil {
		return nil, errors.Wrap(err, "catalogs")
	}

	var result []Messages
	for _, f := range files {
		data, err := catalogFS.ReadFile(path.Join("catalogs", f.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "catalog %s", f.Name())
		}

		var cf catalogFile
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return nil, errors.Wrapf(err, "catalog %s", f.Name())
		}

		for lang, c := range cf {
			tag, err := language.Parse(lang)
			if err != nil {
				return nil, errors.Wrapf(err, "catalog %s", f.Name())
			}

			table := make(map[formatter.Code]string, len(c.Errors.Messages))
			for code, text := range c.Errors.Messages {
				table[formatter.Code(code)] = text
			}

			result = append(result, Messages{Language: tag, table: table})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Language.String() < result[j].Language.String()
	})

	return result, nil
}

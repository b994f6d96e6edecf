package contract

import (
	"sort"
	"strings"
)

// Location is the place of the request where the parameter value is taken from
type Location string

const (
	InPath     Location = "path"
	InQuery    Location = "query"
	InBody     Location = "body"
	InHeader   Location = "header"
	InFormData Location = "formData"
)

// Locations lists the parameter locations the contract loader accepts
var Locations = []Location{InPath, InQuery, InBody, InHeader, InFormData}

// Verbs lists the supported operation keys of a path item in the lower case
var Verbs = []string{"get", "put", "post", "delete", "options", "head", "patch"}

type Info struct {
	Title   string `yaml:"title" json:"title"`
	Version string `yaml:"version" json:"version"`
}

// Document is the loaded API contract. The document is never modified after the loading
// and can be shared between goroutines without synchronization.
type Document struct {
	Swagger     string                           `json:"swagger"`
	Info        Info                             `json:"info"`
	BasePath    string                           `json:"basePath,omitempty"`
	Consumes    []string                         `json:"consumes,omitempty"`
	Paths       map[string]map[string]*Operation `json:"paths"`
	Definitions map[string]any                   `json:"definitions,omitempty"`
}

// Templates returns all path templates of the document in the lexicographic order
func (d *Document) Templates() []string {
	templates := make([]string, 0, len(d.Paths))
	for t := range d.Paths {
		templates = append(templates, t)
	}
	sort.Strings(templates)
	return templates
}

// Operation returns the operation of the template declared for the verb
func (d *Document) Operation(template, verb string) *Operation {
	ops, ok := d.Paths[template]
	if !ok {
		return nil
	}
	return ops[strings.ToLower(verb)]
}

// Operation describes one verb of one path template
type Operation struct {
	ID         string       `json:"operationId,omitempty"`
	Summary    string       `json:"summary,omitempty"`
	Consumes   []string     `json:"consumes,omitempty"`
	Parameters []*Parameter `json:"parameters,omitempty"`
}

// ParametersIn returns the parameters declared for the location in the declaration order
func (o *Operation) ParametersIn(loc Location) []*Parameter {
	var params []*Parameter
	for _, p := range o.Parameters {
		if p.In == loc {
			params = append(params, p)
		}
	}
	return params
}

// BodyParameter returns the body parameter of the operation or nil
func (o *Operation) BodyParameter() *Parameter {
	for _, p := range o.Parameters {
		if p.In == InBody {
			return p
		}
	}
	return nil
}

// Parameter is a Swagger 2.0 parameter object. Body parameters carry the schema of the
// request body, other parameters carry the validation keywords inline.
type Parameter struct {
	Ref              string         `yaml:"$ref,omitempty" json:"-"`
	Name             string         `yaml:"name" json:"name"`
	In               Location       `yaml:"in" json:"in"`
	Description      string         `yaml:"description,omitempty" json:"description,omitempty"`
	Required         bool           `yaml:"required,omitempty" json:"required,omitempty"`
	Type             string         `yaml:"type,omitempty" json:"type,omitempty"`
	Format           string         `yaml:"format,omitempty" json:"format,omitempty"`
	Pattern          string         `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Minimum          *float64       `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum          *float64       `yaml:"maximum,omitempty" json:"maximum,omitempty"`
	ExclusiveMinimum bool           `yaml:"exclusiveMinimum,omitempty" json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum bool           `yaml:"exclusiveMaximum,omitempty" json:"exclusiveMaximum,omitempty"`
	MinLength        *uint64        `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength        *uint64        `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
	MinItems         *uint64        `yaml:"minItems,omitempty" json:"minItems,omitempty"`
	MaxItems         *uint64        `yaml:"maxItems,omitempty" json:"maxItems,omitempty"`
	Enum             []any          `yaml:"enum,omitempty" json:"enum,omitempty"`
	Items            map[string]any `yaml:"items,omitempty" json:"items,omitempty"`
	CollectionFormat string         `yaml:"collectionFormat,omitempty" json:"collectionFormat,omitempty"`
	Default          any            `yaml:"default,omitempty" json:"default,omitempty"`
	Schema           map[string]any `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// ItemsType returns the declared type of the array items
func (p *Parameter) ItemsType() string {
	if p.Items == nil {
		return ""
	}
	t, _ := p.Items["type"].(string)
	return t
}

// SchemaProperty renders the validation keywords of a non-body parameter as the JSON schema
// of an object property
func (p *Parameter) SchemaProperty() map[string]any {
	prop := make(map[string]any)

	// file uploads have no JSON schema type
	if p.Type != "" && p.Type != "file" {
		prop["type"] = p.Type
	}
	if p.Format != "" {
		prop["format"] = p.Format
	}
	if p.Pattern != "" {
		prop["pattern"] = p.Pattern
	}
	if p.Minimum != nil {
		prop["minimum"] = *p.Minimum
		if p.ExclusiveMinimum {
			prop["exclusiveMinimum"] = true
		}
	}
	if p.Maximum != nil {
		prop["maximum"] = *p.Maximum
		if p.ExclusiveMaximum {
			prop["exclusiveMaximum"] = true
		}
	}
	if p.MinLength != nil {
		prop["minLength"] = *p.MinLength
	}
	if p.MaxLength != nil {
		prop["maxLength"] = *p.MaxLength
	}
	if p.MinItems != nil {
		prop["minItems"] = *p.MinItems
	}
	if p.MaxItems != nil {
		prop["maxItems"] = *p.MaxItems
	}
	if len(p.Enum) > 0 {
		prop["enum"] = p.Enum
	}
	if p.Items != nil {
		prop["items"] = p.Items
	}

	return prop
}

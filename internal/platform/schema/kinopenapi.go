package schema

import (
	"encoding/json"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pkg/errors"
)

// KinOpenAPI validates values with the kin-openapi schema visitor
type KinOpenAPI struct{}

var _ Engine = (*KinOpenAPI)(nil)

func NewKinOpenAPI() *KinOpenAPI {
	return &KinOpenAPI{}
}

func (k *KinOpenAPI) Name() string {
	return EngineKinOpenAPI
}

func (k *KinOpenAPI) Compile(raw map[string]any, definitions map[string]any) (Compiled, error) {

	defs := make(map[string]*openapi3.SchemaRef, len(definitions))
	for name, def := range definitions {
		ref, err := toSchemaRef(def)
		if err != nil {
			return nil, errors.Wrapf(err, "definition %q", name)
		}
		defs[name] = ref
	}

	root, err := toSchemaRef(raw)
	if err != nil {
		return nil, errors.Wrap(err, "schema")
	}

	r := refResolver{
		defs:      defs,
		visited:   make(map[*openapi3.Schema]struct{}),
		resolving: make(map[string]struct{}),
	}

	for name, def := range defs {
		if err := r.resolve(def); err != nil {
			return nil, errors.Wrapf(err, "definition %q", name)
		}
	}

	if err := r.resolve(root); err != nil {
		return nil, err
	}

	if root.Value == nil {
		return nil, errors.New("empty schema")
	}

	return &kinCompiled{schema: root.Value}, nil
}

func toSchemaRef(v any) (*openapi3.SchemaRef, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var ref openapi3.SchemaRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, err
	}

	return &ref, nil
}

// refResolver points the references at the parsed definitions. Recursive definitions share
// the schema pointers, so cycles are visited once.
type refResolver struct {
	defs      map[string]*openapi3.SchemaRef
	visited   map[*openapi3.Schema]struct{}
	resolving map[string]struct{}
}

func (r *refResolver) resolve(ref *openapi3.SchemaRef) error {
	if ref == nil {
		return nil
	}

	if ref.Ref != "" {
		if ref.Value != nil {
			return nil
		}

		if !strings.HasPrefix(ref.Ref, definitionsRefPrefix) {
			return errors.Errorf("unsupported reference %q", ref.Ref)
		}

		name := strings.TrimPrefix(ref.Ref, definitionsRefPrefix)
		target, ok := r.defs[name]
		if !ok {
			return errors.Errorf("reference %q not found", ref.Ref)
		}

		if target.Value == nil {
			if _, loop := r.resolving[name]; loop {
				return errors.Errorf("reference %q points at itself", ref.Ref)
			}
			r.resolving[name] = struct{}{}
			err := r.resolve(target)
			delete(r.resolving, name)
			if err != nil {
				return err
			}
		}

		ref.Value = target.Value
		return nil
	}

	s := ref.Value
	if s == nil {
		return nil
	}

	if _, ok := r.visited[s]; ok {
		return nil
	}
	r.visited[s] = struct{}{}

	children := []*openapi3.SchemaRef{s.Items, s.Not, s.AdditionalProperties.Schema}
	children = append(children, s.AllOf...)
	children = append(children, s.AnyOf...)
	children = append(children, s.OneOf...)
	for _, p := range s.Properties {
		children = append(children, p)
	}

	for _, child := range children {
		if err := r.resolve(child); err != nil {
			return err
		}
	}

	return nil
}

type kinCompiled struct {
	schema *openapi3.Schema
}

func (c *kinCompiled) Validate(value any) []Failure {

	err := c.schema.VisitJSON(value, openapi3.MultiErrors(), openapi3.VisitAsRequest())
	if err == nil {
		return nil
	}

	var failures []Failure
	collectKinFailures(err, &failures)

	return failures
}

func collectKinFailures(err error, failures *[]Failure) {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, nested := range e {
			collectKinFailures(nested, failures)
		}
	case *openapi3.SchemaError:
		*failures = append(*failures, kinFailure(e))
	default:
		*failures = append(*failures, Failure{
			Fragment: Fragment(nil),
			Kind:     KindOther,
			Message:  err.Error(),
		})
	}
}

func kinFailure(e *openapi3.SchemaError) Failure {

	pointer := e.JSONPointer()

	f := Failure{
		Kind:    ParseKind(e.SchemaField),
		Keyword: e.SchemaField,
		Message: e.Reason,
	}

	s := e.Schema
	if s == nil {
		f.Fragment = Fragment(pointer)
		return f
	}

	switch f.Kind {
	case KindRequired:
		// the pointer of the required failure ends with the missing property
		if len(pointer) > 0 {
			f.Params.Property = pointer[len(pointer)-1]
			pointer = pointer[:len(pointer)-1]
		}
	case KindMinimum:
		f.Params.Limit = s.Min
	case KindMaximum:
		f.Params.Limit = s.Max
	case KindMinLength:
		f.Params.Limit = float64Ptr(float64(s.MinLength))
	case KindMaxLength:
		if s.MaxLength != nil {
			f.Params.Limit = float64Ptr(float64(*s.MaxLength))
		}
	case KindType:
		f.Params.Expected = s.Type.Slice()
	case KindEnum:
		f.Params.Enum = s.Enum
	}

	f.Fragment = Fragment(pointer)

	return f
}

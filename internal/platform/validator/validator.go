package validator

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"

	"github.com/wallarm/contract-firewall/internal/platform/contract"
	"github.com/wallarm/contract-firewall/internal/platform/formatter"
	"github.com/wallarm/contract-firewall/internal/platform/router"
	"github.com/wallarm/contract-firewall/internal/platform/schema"
)

// Validator checks the request parameters of the matched operation. It keeps no request
// state and is safe for concurrent use.
type Validator struct {
	engine    schema.Engine
	formatter *formatter.Formatter
	cache     *SchemaCache
	schemaID  int
	revision  string
	decoder   bodyDecoder
	logger    zerolog.Logger
}

type Option func(*Validator)

// WithSchemaCache shares the compiled schemas of the contract between requests. The revision
// identifies the contract content, usually its checksum.
func WithSchemaCache(cache *SchemaCache, schemaID int, revision string) Option {
	return func(v *Validator) {
		v.cache = cache
		v.schemaID = schemaID
		v.revision = revision
	}
}

func WithJSONParserPool(pool *fastjson.ParserPool) Option {
	return func(v *Validator) {
		v.decoder.jsonParserPool = pool
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

func New(engine schema.Engine, fm *formatter.Formatter, opts ...Option) *Validator {

	v := Validator{
		engine:    engine,
		formatter: fm,
		logger:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&v)
	}

	if v.decoder.jsonParserPool == nil {
		v.decoder.jsonParserPool = &fastjson.ParserPool{}
	}

	return &v
}

// Validate checks the request against the matched operation. The returned error is
// *ContentTypeError when the operation does not consume the media type of the request, all
// other problems are reported as the invalidities of the report.
func (v *Validator) Validate(match *router.Match, req *Request, definitions map[string]any) (Report, error) {

	op := match.Operation

	if err := v.checkContentType(op, req); err != nil {
		return nil, err
	}

	report := Report{}

	report.Merge(v.validateLocation(match, req, contract.InQuery, definitions, func(params []*contract.Parameter) map[string]any {
		return queryValues(req.Query, params)
	}))

	report.Merge(v.validateLocation(match, req, contract.InPath, definitions, func(params []*contract.Parameter) map[string]any {
		values := make(map[string]any, len(match.Captures))
		for name, value := range match.Captures {
			values[name] = value
		}
		return coerceDeclared(values, params)
	}))

	report.Merge(v.validateLocation(match, req, contract.InHeader, definitions, func(params []*contract.Parameter) map[string]any {
		values := make(map[string]any, len(params))
		for _, p := range params {
			if value, ok := req.Header[strings.ToLower(p.Name)]; ok {
				values[p.Name] = value
			}
		}
		return coerceDeclared(values, params)
	}))

	report.Merge(v.validateFormData(match, req, definitions))

	report.Merge(v.validateBody(match, req, definitions))

	return report, nil
}

// Warmup compiles the schemas of every operation of the contract. It fails on the first
// schema the engine can not compile.
func (v *Validator) Warmup(doc *contract.Document) error {
	for _, template := range doc.Templates() {
		for verb, op := range doc.Paths[template] {
			match := &router.Match{Template: template, Operation: op}
			req := NewRequest(verb, "", nil, nil)

			for _, loc := range contract.Locations {
				if _, err := v.compiled(match, req, loc, doc.Definitions); err != nil {
					return errors.Wrapf(err, "%s %s: %s parameters", strings.ToUpper(verb), template, loc)
				}
			}
		}
	}
	return nil
}

func (v *Validator) checkContentType(op *contract.Operation, req *Request) error {

	if len(op.Consumes) == 0 {
		return nil
	}

	// requests without the content are not restricted
	if req.ContentType == "" {
		body, err := req.Body()
		if err != nil || len(body) == 0 {
			return nil
		}
	}

	mediaType, _ := parseMediaType(strings.ToLower(req.ContentType))
	for _, acceptable := range op.Consumes {
		if am, _ := parseMediaType(strings.ToLower(acceptable)); am == mediaType {
			return nil
		}
	}

	return &ContentTypeError{Acceptable: op.Consumes, Given: req.ContentType}
}

type valuesFunc func(params []*contract.Parameter) map[string]any

func (v *Validator) validateLocation(match *router.Match, req *Request, loc contract.Location, definitions map[string]any, values valuesFunc) Report {

	params := match.Operation.ParametersIn(loc)
	if len(params) == 0 {
		return nil
	}

	compiled, err := v.compiled(match, req, loc, definitions)
	if err != nil {
		return v.compileFailed(match, loc, err)
	}

	return v.report(compiled.Validate(values(params)), "")
}

func (v *Validator) validateFormData(match *router.Match, req *Request, definitions map[string]any) Report {
	return v.validateLocation(match, req, contract.InFormData, definitions, func(params []*contract.Parameter) map[string]any {

		var values map[string]any
		switch {
		case req.Form != nil:
			values = flatten(req.Form)
		default:
			body, err := req.Body()
			if err != nil {
				values = map[string]any{}
				break
			}
			values = decodeForm(body)
		}

		return coerceDeclared(values, params)
	})
}

func (v *Validator) validateBody(match *router.Match, req *Request, definitions map[string]any) Report {

	p := match.Operation.BodyParameter()
	if p == nil || p.Schema == nil {
		return nil
	}

	body, err := req.Body()
	if err != nil {
		v.logger.Debug().Err(err).Msg("request body reading failed")
		return Report{p.Name: {Message: formatter.CodeInvalid}}
	}

	if len(body) == 0 {
		if p.Required {
			return Report{p.Name: {Message: formatter.CodeBlank}}
		}
		return nil
	}

	value, err := v.decoder.decode(req.ContentType, body)
	if err != nil {
		v.logger.Debug().Err(err).Str("content_type", req.ContentType).Msg("request body decoding failed")
		return Report{p.Name: {Message: formatter.CodeInvalid}}
	}

	compiled, err := v.compiled(match, req, contract.InBody, definitions)
	if err != nil {
		return v.compileFailed(match, contract.InBody, err)
	}

	return v.report(compiled.Validate(value), p.Name)
}

// compiled returns the schema of the location or nil if the operation declares no
// parameters there
func (v *Validator) compiled(match *router.Match, req *Request, loc contract.Location, definitions map[string]any) (schema.Compiled, error) {

	raw := locationSchema(match.Operation, loc)
	if raw == nil {
		return nil, nil
	}

	return req.compiledSchema(loc, func() (schema.Compiled, error) {
		compile := func() (schema.Compiled, error) {
			return v.engine.Compile(raw, definitions)
		}

		if v.cache == nil {
			return compile()
		}

		key := schemaCacheKey(v.schemaID, v.revision, strings.ToLower(req.Method), match.Template, loc)
		return v.cache.Fetch(key, compile)
	})
}

func (v *Validator) compileFailed(match *router.Match, loc contract.Location, err error) Report {
	v.logger.Error().
		Err(err).
		Str("template", match.Template).
		Str("location", string(loc)).
		Msg("schema compilation failed")

	return Report{string(loc): {Message: formatter.CodeInvalid}}
}

// report formats the failures. Failures of the whole value are keyed by rootKey.
func (v *Validator) report(failures []schema.Failure, rootKey string) Report {
	if len(failures) == 0 {
		return nil
	}

	report := Report{}
	for _, fe := range v.formatter.FormatAll(failures) {
		if fe.Key == "" && rootKey != "" {
			fe.Key = rootKey
		}
		report.Add(fe)
	}

	return report
}

// locationSchema builds the JSON schema of the location
func locationSchema(op *contract.Operation, loc contract.Location) map[string]any {

	if loc == contract.InBody {
		if p := op.BodyParameter(); p != nil {
			return p.Schema
		}
		return nil
	}

	params := op.ParametersIn(loc)
	if len(params) == 0 {
		return nil
	}

	properties := make(map[string]any, len(params))
	var required []any

	for _, p := range params {
		properties[p.Name] = p.SchemaProperty()
		if p.Required {
			required = append(required, p.Name)
		}
	}

	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}

	return s
}

// queryValues returns the query map with the declared parameters coerced. Repeated keys
// keep all values only for the multi collection format, otherwise the last value wins.
func queryValues(query map[string][]string, params []*contract.Parameter) map[string]any {

	declared := make(map[string]*contract.Parameter, len(params))
	for _, p := range params {
		declared[p.Name] = p
	}

	values := make(map[string]any, len(query))
	for name, vals := range query {
		if len(vals) == 0 {
			continue
		}

		p, ok := declared[name]
		switch {
		case !ok:
			values[name] = vals[len(vals)-1]
		case p.Type == typeArray && p.CollectionFormat == collectionMulti:
			values[name] = CoerceParameter(vals, p)
		default:
			values[name] = CoerceParameter(vals[len(vals)-1], p)
		}
	}

	return values
}

func coerceDeclared(values map[string]any, params []*contract.Parameter) map[string]any {
	for _, p := range params {
		if value, ok := values[p.Name]; ok {
			values[p.Name] = CoerceParameter(value, p)
		}
	}
	return values
}

package loader

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/wallarm/contract-firewall/internal/platform/contract"
)

const parametersRefPrefix = "#/parameters/"

var (
	ErrContractParsing    = errors.New("contract parsing error")
	ErrContractValidation = errors.New("contract validation error")
)

type rawOperation struct {
	OperationID string                `yaml:"operationId"`
	Summary     string                `yaml:"summary"`
	Consumes    *[]string             `yaml:"consumes"`
	Parameters  []*contract.Parameter `yaml:"parameters"`
}

type rawDocument struct {
	Swagger     string                          `yaml:"swagger"`
	Info        contract.Info                   `yaml:"info"`
	BasePath    string                          `yaml:"basePath"`
	Consumes    []string                        `yaml:"consumes"`
	Parameters  map[string]*contract.Parameter  `yaml:"parameters"`
	Definitions map[string]any                  `yaml:"definitions"`
	Paths       map[string]map[string]yaml.Node `yaml:"paths"`
}

// ParseContract parses the JSON or YAML contract and returns the immutable document
func ParseContract(raw []byte, schemaVersion string, schemaID int) (*contract.Document, error) {

	var rawDoc rawDocument
	if err := yaml.Unmarshal(raw, &rawDoc); err != nil {
		return nil, fmt.Errorf("%w: contract (version %s; schema ID %d): %w", ErrContractParsing, schemaVersion, schemaID, err)
	}

	doc, err := buildDocument(&rawDoc)
	if err != nil {
		return nil, fmt.Errorf("%w: contract (version %s; schema ID %d): %w", ErrContractValidation, schemaVersion, schemaID, err)
	}

	return doc, nil
}

func buildDocument(rawDoc *rawDocument) (*contract.Document, error) {

	if rawDoc.Swagger != "" && !strings.HasPrefix(rawDoc.Swagger, "2.") {
		return nil, errors.Errorf("unsupported swagger version %q", rawDoc.Swagger)
	}

	doc := contract.Document{
		Swagger:     rawDoc.Swagger,
		Info:        rawDoc.Info,
		BasePath:    rawDoc.BasePath,
		Consumes:    rawDoc.Consumes,
		Paths:       make(map[string]map[string]*contract.Operation, len(rawDoc.Paths)),
		Definitions: rawDoc.Definitions,
	}

	if doc.Definitions == nil {
		doc.Definitions = make(map[string]any)
	}

	for template, pathItem := range rawDoc.Paths {

		var common []*contract.Parameter
		if node, ok := pathItem["parameters"]; ok {
			if err := node.Decode(&common); err != nil {
				return nil, errors.Wrapf(err, "path %s: decoding parameters", template)
			}
		}

		ops := make(map[string]*contract.Operation)

		for key, node := range pathItem {
			verb := strings.ToLower(key)
			if !isVerb(verb) {
				continue
			}

			var rawOp rawOperation
			if err := node.Decode(&rawOp); err != nil {
				return nil, errors.Wrapf(err, "%s %s: decoding operation", verb, template)
			}

			params, err := mergeParameters(rawDoc.Parameters, common, rawOp.Parameters)
			if err != nil {
				return nil, errors.Wrapf(err, "%s %s", verb, template)
			}

			op := contract.Operation{
				ID:         rawOp.OperationID,
				Summary:    rawOp.Summary,
				Consumes:   rawDoc.Consumes,
				Parameters: params,
			}

			// operation level consumes replaces the document level value
			if rawOp.Consumes != nil {
				op.Consumes = *rawOp.Consumes
			}

			if err := validateOperation(&op); err != nil {
				return nil, errors.Wrapf(err, "%s %s", verb, template)
			}

			ops[verb] = &op
		}

		doc.Paths[template] = ops
	}

	return &doc, nil
}

func isVerb(key string) bool {
	for _, v := range contract.Verbs {
		if v == key {
			return true
		}
	}
	return false
}

// mergeParameters resolves parameter references and lets the operation parameters override
// the path item parameters with the same name and location
func mergeParameters(shared map[string]*contract.Parameter, common, own []*contract.Parameter) ([]*contract.Parameter, error) {

	var result []*contract.Parameter
	index := make(map[string]int)

	for _, list := range [][]*contract.Parameter{common, own} {
		seen := make(map[string]struct{})

		for _, p := range list {
			resolved, err := resolveParameter(shared, p)
			if err != nil {
				return nil, err
			}

			key := string(resolved.In) + ":" + resolved.Name
			if _, ok := seen[key]; ok {
				return nil, errors.Errorf("duplicate parameter %q in %s", resolved.Name, resolved.In)
			}
			seen[key] = struct{}{}

			if i, ok := index[key]; ok {
				result[i] = resolved
				continue
			}

			index[key] = len(result)
			result = append(result, resolved)
		}
	}

	return result, nil
}

func resolveParameter(shared map[string]*contract.Parameter, p *contract.Parameter) (*contract.Parameter, error) {
	if p == nil {
		return nil, errors.New("empty parameter definition")
	}

	if p.Ref == "" {
		return p, nil
	}

	if !strings.HasPrefix(p.Ref, parametersRefPrefix) {
		return nil, errors.Errorf("unsupported parameter reference %q", p.Ref)
	}

	resolved, ok := shared[strings.TrimPrefix(p.Ref, parametersRefPrefix)]
	if !ok || resolved == nil {
		return nil, errors.Errorf("parameter reference %q not found", p.Ref)
	}

	return resolved, nil
}

func validateOperation(op *contract.Operation) error {

	var bodyParams, formParams int

	for _, p := range op.Parameters {
		if p.Name == "" {
			return errors.New("parameter without name")
		}

		known := false
		for _, loc := range contract.Locations {
			if p.In == loc {
				known = true
				break
			}
		}
		if !known {
			return errors.Errorf("parameter %q: unknown location %q", p.Name, p.In)
		}

		switch p.In {
		case contract.InBody:
			bodyParams++
		case contract.InFormData:
			formParams++
		}
	}

	if bodyParams > 1 {
		return errors.New("more than one body parameter")
	}

	if bodyParams > 0 && formParams > 0 {
		return errors.New("body and formData parameters can not be used together")
	}

	return nil
}

package validator

import (
	"strings"

	"github.com/clbanning/mxj/v2"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"
)

const (
	mimeJSON          = "application/json"
	mimeXML           = "application/xml"
	mimeTextXML       = "text/xml"
	mimeFormURL       = "application/x-www-form-urlencoded"
	mimeMultipartForm = "multipart/form-data"

	suffixJSON = "+json"
	suffixXML  = "+xml"
)

var ErrUnsupportedMediaType = errors.New("unsupported media type of the body")

// bodyDecoder turns the raw body into the value validated by the schema engine
type bodyDecoder struct {
	jsonParserPool *fastjson.ParserPool
}

func (d *bodyDecoder) decode(contentType string, data []byte) (any, error) {

	mediaType, suffix := parseMediaType(strings.ToLower(contentType))

	switch {
	case mediaType == "" || mediaType == mimeJSON || suffix == suffixJSON:
		return d.decodeJSON(data)
	case mediaType == mimeXML || mediaType == mimeTextXML || suffix == suffixXML:
		return decodeXML(data)
	case mediaType == mimeFormURL:
		return decodeForm(data), nil
	}

	return nil, errors.Wrapf(ErrUnsupportedMediaType, "%q", mediaType)
}

func (d *bodyDecoder) decodeJSON(data []byte) (any, error) {

	parser := d.jsonParserPool.Get()
	defer d.jsonParserPool.Put(parser)

	v, err := parser.ParseBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "json")
	}

	// the parsed value is bound to the parser and must be converted before it is returned
	return convertToMap(v), nil
}

// decodeXML returns the content of the root element
func decodeXML(data []byte) (any, error) {

	m, err := mxj.NewMapXml(data, true)
	if err != nil {
		return nil, errors.Wrap(err, "xml")
	}

	if len(m) == 1 {
		for _, root := range m {
			return root, nil
		}
	}

	return map[string]any(m), nil
}

// decodeForm returns the url-encoded fields. Repeated fields are kept as slices.
func decodeForm(data []byte) map[string]any {
	var args fasthttp.Args
	args.ParseBytes(data)

	return formValues(&args)
}

func formValues(args *fasthttp.Args) map[string]any {
	fields := make(map[string][]string)
	args.VisitAll(func(key, value []byte) {
		k := string(key)
		fields[k] = append(fields[k], string(value))
	})

	return flatten(fields)
}

// flatten keeps single values as strings
func flatten(fields map[string][]string) map[string]any {
	result := make(map[string]any, len(fields))
	for k, values := range fields {
		if len(values) == 1 {
			result[k] = values[0]
			continue
		}
		result[k] = values
	}
	return result
}

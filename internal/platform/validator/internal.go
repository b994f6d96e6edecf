package validator

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fastjson"
)

// parseMediaType func parses content type and returns media type and suffix
func parseMediaType(contentType string) (string, string) {

	var mtSubtype, suffix string
	mediaType := contentType

	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}

	if i := strings.IndexByte(mediaType, '/'); i >= 0 {
		mtSubtype = mediaType[i+1:]
	}

	if i := strings.LastIndexByte(mtSubtype, '+'); i >= 0 {
		suffix = mtSubtype[i:]
	}

	return mediaType, suffix
}

// convertToMap converts the parsed JSON value to the plain Go value. Numbers are kept as
// json.Number to not lose the precision of big integers.
func convertToMap(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		m := make(map[string]any)
		v.GetObject().Visit(func(k []byte, v *fastjson.Value) {
			m[string(k)] = convertToMap(v)
		})
		return m
	case fastjson.TypeArray:
		values := v.GetArray()
		a := make([]any, 0, len(values))
		for _, v := range values {
			a = append(a, convertToMap(v))
		}
		return a
	case fastjson.TypeNumber:
		return json.Number(v.String())
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return v.GetBool()
	default:
		return nil
	}
}

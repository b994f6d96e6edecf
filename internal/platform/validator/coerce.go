package validator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wallarm/contract-firewall/internal/platform/contract"
)

const (
	typeInteger = "integer"
	typeNumber  = "number"
	typeBoolean = "boolean"
	typeArray   = "array"

	collectionCSV   = "csv"
	collectionSSV   = "ssv"
	collectionTSV   = "tsv"
	collectionPipes = "pipes"
	collectionMulti = "multi"
)

var (
	integerRegex = regexp.MustCompile(`^-?\d+$`)
	numberRegex  = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	booleanRegex = regexp.MustCompile(`(?i)^(true|t|yes|y|1|false|f|no|n|0)$`)
	trueRegex    = regexp.MustCompile(`(?i)^(true|t|yes|y|1)$`)
)

// Coerce converts the textual value to the declared primitive type. Values that are not
// strings or do not look like the type are returned unchanged.
func Coerce(raw any, typ string) any {

	s, ok := raw.(string)
	if !ok {
		return raw
	}

	switch typ {
	case typeInteger:
		if integerRegex.MatchString(s) {
			if v, err := strconv.ParseInt(s, 10, 64); err == nil {
				return v
			}
		}
	case typeNumber:
		if numberRegex.MatchString(s) {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				return v
			}
		}
	case typeBoolean:
		if booleanRegex.MatchString(s) {
			return trueRegex.MatchString(s)
		}
	}

	return s
}

// CoerceParameter converts the raw parameter value according to the parameter declaration.
// Array values are split by the collection format and every item is coerced.
func CoerceParameter(raw any, p *contract.Parameter) any {

	if p.Type != typeArray {
		return Coerce(raw, p.Type)
	}

	var items []string
	switch v := raw.(type) {
	case []string:
		if p.CollectionFormat == collectionMulti || len(v) != 1 {
			items = v
		} else {
			items = splitCollection(v[0], p.CollectionFormat)
		}
	case string:
		items = splitCollection(v, p.CollectionFormat)
	default:
		return raw
	}

	itemsType := p.ItemsType()
	result := make([]any, 0, len(items))
	for _, item := range items {
		result = append(result, Coerce(item, itemsType))
	}

	return result
}

func splitCollection(value, format string) []string {
	if value == "" {
		return []string{}
	}

	switch format {
	case collectionSSV:
		return strings.Split(value, " ")
	case collectionTSV:
		return strings.Split(value, "\t")
	case collectionPipes:
		return strings.Split(value, "|")
	case collectionMulti:
		return []string{value}
	}

	return strings.Split(value, ",")
}

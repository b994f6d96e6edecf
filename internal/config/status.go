package config

import (
	"reflect"

	"github.com/go-playground/validator"
	"github.com/valyala/fasthttp"
)

const unknownStatusMessage = "Unknown Status Code"

// isRejectStatus reports whether the code is a registered client or server error status
func isRejectStatus(code int64) bool {
	if code < fasthttp.StatusBadRequest || code > fasthttp.StatusNetworkAuthenticationRequired {
		return false
	}
	return fasthttp.StatusMessage(int(code)) != unknownStatusMessage
}

// ValidateStatusList checks that the field holds the status codes a rejected request can be
// answered with. Single codes and slices of codes are accepted.
func ValidateStatusList(fl validator.FieldLevel) bool {
	field := fl.Field()

	switch field.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return isRejectStatus(field.Int())
	case reflect.Slice:
		for i := 0; i < field.Len(); i++ {
			if !isRejectStatus(field.Index(i).Int()) {
				return false
			}
		}
		return true
	}

	return false
}

package validator

import (
	"fmt"
	"strings"
)

// ContentTypeError is returned when the media type of the request is not consumed by the
// operation
type ContentTypeError struct {
	Acceptable []string
	Given      string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("content type %q is not one of the acceptable types: %s", e.Given, strings.Join(e.Acceptable, ", "))
}

package contractfw

import "github.com/valyala/fasthttp"

var (
	StatusOK                  int = fasthttp.StatusOK
	StatusForbidden           int = fasthttp.StatusForbidden
	StatusInternalServerError int = fasthttp.StatusInternalServerError
)

// Invalidity is a single failed field. Key is the "/" separated path of the field, Code is
// one of the symbolic messages, e.g. "not_an_integer".
type Invalidity struct {
	Key     string         `json:"key"`
	Code    string         `json:"code"`
	Options map[string]any `json:"options,omitempty"`
	Message string         `json:"message,omitempty"`
}

type ContentTypes struct {
	Acceptable []string `json:"acceptable"`
	Given      string   `json:"given"`
}

type ValidationError struct {
	Message       string        `json:"message"`
	Code          string        `json:"code"`
	SchemaVersion string        `json:"schema_version,omitempty"`
	SchemaID      *int          `json:"schema_id"`
	Invalidities  []Invalidity  `json:"invalidities,omitempty"`
	ContentTypes  *ContentTypes `json:"content_types,omitempty"`
}

type ValidationResponseSummary struct {
	SchemaID   *int              `json:"schema_id"`
	StatusCode *int              `json:"status_code"`
	Template   string            `json:"template,omitempty"`
	Operation  string            `json:"operation,omitempty"`
	Captures   map[string]string `json:"captures,omitempty"`
}

type ValidationResponse struct {
	Summary []*ValidationResponseSummary `json:"summary"`
	Errors  []*ValidationError           `json:"errors,omitempty"`
}

package validator

import (
	"bytes"
	"io"
	"strings"

	"github.com/savsgio/gotils/strconv"
	"github.com/valyala/fasthttp"

	"github.com/wallarm/contract-firewall/internal/platform/contract"
	"github.com/wallarm/contract-firewall/internal/platform/schema"
	"github.com/wallarm/contract-firewall/internal/platform/web"
)

// Request holds the parts of the incoming request the validator works with. The body
// source is consumed at most once and the request must not be shared between goroutines.
type Request struct {
	Method          string
	ContentType     string
	ContentEncoding string
	Query           map[string][]string
	Header          map[string]string
	// Form holds the already parsed form fields, e.g. of a multipart body
	Form map[string][]string

	body     io.Reader
	bodyRead bool
	raw      []byte
	bodyErr  error

	schemas map[contract.Location]schema.Compiled
}

// NewRequest creates the request with the body source. The body may be nil.
func NewRequest(method, contentType string, query map[string][]string, body io.Reader) *Request {
	if query == nil {
		query = map[string][]string{}
	}
	return &Request{
		Method:      method,
		ContentType: contentType,
		Query:       query,
		Header:      map[string]string{},
		body:        body,
	}
}

// NewRequestFromFastHTTP builds the request from the fasthttp request context
func NewRequestFromFastHTTP(ctx *fasthttp.RequestCtx) *Request {

	query := make(map[string][]string)
	ctx.QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		query[k] = append(query[k], string(value))
	})

	header := make(map[string]string)
	ctx.Request.Header.VisitAll(func(key, value []byte) {
		header[strings.ToLower(string(key))] = string(value)
	})

	req := NewRequest(
		strconv.B2S(ctx.Method()),
		string(ctx.Request.Header.ContentType()),
		query,
		bytes.NewReader(ctx.Request.Body()),
	)
	req.ContentEncoding = string(ctx.Request.Header.ContentEncoding())
	req.Header = header

	if mediaType, _ := parseMediaType(req.ContentType); mediaType == mimeMultipartForm {
		if form, err := ctx.MultipartForm(); err == nil {
			req.Form = form.Value
		}
	}

	return req
}

// Body returns the decompressed body. The source is read on the first call only and the
// result is kept for the next calls.
func (r *Request) Body() ([]byte, error) {
	if r.bodyRead {
		return r.raw, r.bodyErr
	}
	r.bodyRead = true

	if r.body == nil {
		return nil, nil
	}

	data, err := io.ReadAll(r.body)
	if err != nil {
		r.bodyErr = err
		return nil, err
	}

	if r.ContentEncoding != "" && len(data) > 0 {
		rc, err := web.Decompress(data, r.ContentEncoding)
		if err != nil {
			r.bodyErr = err
			return nil, err
		}
		defer rc.Close()

		if data, err = io.ReadAll(rc); err != nil {
			r.bodyErr = err
			return nil, err
		}
	}

	r.raw = data

	return r.raw, nil
}

// compiledSchema returns the schema of the location computed by build once per request
func (r *Request) compiledSchema(loc contract.Location, build func() (schema.Compiled, error)) (schema.Compiled, error) {
	if s, ok := r.schemas[loc]; ok {
		return s, nil
	}

	s, err := build()
	if err != nil {
		return nil, err
	}

	if r.schemas == nil {
		r.schemas = make(map[contract.Location]schema.Compiled)
	}
	r.schemas[loc] = s

	return s, nil
}

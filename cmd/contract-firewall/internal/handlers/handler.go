package handlers

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	strconv2 "github.com/savsgio/gotils/strconv"
	"github.com/valyala/fasthttp"

	"github.com/wallarm/contract-firewall/internal/config"
	"github.com/wallarm/contract-firewall/internal/platform/contractset"
	"github.com/wallarm/contract-firewall/internal/platform/locale"
	"github.com/wallarm/contract-firewall/internal/platform/metrics"
	"github.com/wallarm/contract-firewall/internal/platform/router"
	"github.com/wallarm/contract-firewall/internal/platform/validator"
	"github.com/wallarm/contract-firewall/internal/platform/web"
)

const (
	invalidParamsMessage  = "Some of the given parameters were invalid according to the contract."
	invalidContentMessage = "The content type of the request is not accepted by the operation."

	localeQueryParam = "locale"
)

type validResponse struct {
	Status    string            `json:"status"`
	Operation string            `json:"operation"`
	Template  string            `json:"template"`
	Captures  map[string]string `json:"captures"`
}

type contentTypes struct {
	Acceptable []string `json:"acceptable"`
	Given      string   `json:"given"`
}

type RequestValidator struct {
	Contracts  *contractset.Set
	Translator *locale.Translator
	Cfg        *config.ValidatorMode
	Metrics    metrics.Metrics
	Log        zerolog.Logger
}

// Handler validates the request against the contract of the requested schema ID and
// responds with 200 or with the error envelope
func (s *RequestValidator) Handler(ctx *fasthttp.RequestCtx) error {

	if !s.Cfg.Validation.AddValidationStatusHeader {
		defer ctx.Response.Header.Del(web.ValidationStatus)
	}

	schemaID, err := s.schemaID(ctx)
	if err != nil {
		return web.RespondError(ctx, fasthttp.StatusNotFound, web.ValidationNoSchema, err.Error(), nil)
	}
	ctx.SetUserValue(web.SchemaID, schemaID)

	c, err := s.Contracts.Contract(schemaID)
	if err != nil {
		return web.RespondError(ctx, fasthttp.StatusNotFound, web.ValidationNoSchema, err.Error(), nil)
	}

	match, err := c.Lookup(strconv2.B2S(ctx.Method()), strconv2.B2S(ctx.Path()))
	switch {
	case errors.Is(err, router.ErrNotFound):
		return web.RespondError(ctx, fasthttp.StatusNotFound, web.ValidationNotFound, "", nil)
	case errors.Is(err, router.ErrMethodNotAllowed):
		return web.RespondError(ctx, fasthttp.StatusMethodNotAllowed, web.ValidationNotAllowed, "", nil)
	case err != nil:
		return errors.Wrap(err, "path lookup")
	}

	ctx.SetUserValue(web.MatchedTemplate, match.Template)

	report, err := c.Validate(match, validator.NewRequestFromFastHTTP(ctx))
	if err != nil {
		var ctErr *validator.ContentTypeError
		if errors.As(err, &ctErr) {
			details := map[string]any{
				"content_types": contentTypes{Acceptable: ctErr.Acceptable, Given: ctErr.Given},
			}
			return web.RespondError(ctx, s.Cfg.Validation.InvalidContentStatusCode, web.ValidationInvalidContent, invalidContentMessage, details)
		}
		return errors.Wrap(err, "request validation")
	}

	if !report.Empty() {
		invalidities := report.Invalidities()
		for _, inv := range invalidities {
			s.Metrics.IncInvalidityCounter(string(inv.Message), schemaID)
		}

		details := map[string]any{"invalidities": report}
		if messages, ok := s.messages(ctx, invalidities); ok {
			details["messages"] = messages
		}

		return web.RespondError(ctx, s.Cfg.Validation.InvalidParamsStatusCode, web.ValidationInvalidParams, invalidParamsMessage, details)
	}

	ctx.Response.Header.Set(web.ValidationStatus, web.ValidationValid)
	ctx.SetUserValue(web.ValidationCode, web.ValidationValid)

	return web.Respond(ctx, validResponse{
		Status:    web.ValidationValid,
		Operation: operationName(match, strconv2.B2S(ctx.Method())),
		Template:  match.Template,
		Captures:  match.Captures,
	}, fasthttp.StatusOK)
}

// schemaID returns the schema ID from the request header or the configured one
func (s *RequestValidator) schemaID(ctx *fasthttp.RequestCtx) (int, error) {

	value := ctx.Request.Header.Peek(web.XWallarmSchemaIDHeader)
	if len(value) == 0 {
		return s.Cfg.Contract.SchemaID, nil
	}

	schemaID, err := strconv.Atoi(strings.TrimSpace(string(value)))
	if err != nil {
		return 0, errors.Errorf("%s header: invalid schema ID %q", web.XWallarmSchemaIDHeader, value)
	}

	return schemaID, nil
}

// messages renders the invalidities when the client asked for a language
func (s *RequestValidator) messages(ctx *fasthttp.RequestCtx, invalidities []validator.Invalidity) (map[string]string, bool) {

	queryLocale := string(ctx.QueryArgs().Peek(localeQueryParam))
	acceptLanguage := string(ctx.Request.Header.Peek(fasthttp.HeaderAcceptLanguage))

	if s.Translator == nil || (queryLocale == "" && acceptLanguage == "") {
		return nil, false
	}

	m := s.Translator.For(queryLocale, acceptLanguage)

	result := make(map[string]string, len(invalidities))
	for _, inv := range invalidities {
		result[inv.Key] = m.Render(inv.Message, inv.Options)
	}

	return result, true
}

func operationName(match *router.Match, method string) string {
	if match.Operation.ID != "" {
		return match.Operation.ID
	}
	return strings.ToUpper(method) + " " + match.Template
}

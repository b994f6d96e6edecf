package contractfw

import (
	"errors"
	"fmt"

	"github.com/savsgio/gotils/strconv"
	"github.com/valyala/fasthttp"

	"github.com/wallarm/contract-firewall/internal/platform/contractset"
	"github.com/wallarm/contract-firewall/internal/platform/locale"
	"github.com/wallarm/contract-firewall/internal/platform/router"
	"github.com/wallarm/contract-firewall/internal/platform/validator"
)

const invalidParamsMessage = "Some of the given parameters were invalid according to the contract."

type result struct {
	summary       *ValidationResponseSummary
	validationErr *ValidationError
	err           error
}

// processRequest validates the request against the contract of the schema ID
func processRequest(contracts *contractset.Set, translator *locale.Translator, schemaID int, ctx *fasthttp.RequestCtx) (res *result) {

	res = &result{summary: &ValidationResponseSummary{SchemaID: &schemaID}}

	// handle panic
	defer func() {
		if r := recover(); r != nil {
			res.summary.StatusCode = &StatusInternalServerError
			res.validationErr = nil
			res.err = fmt.Errorf("%w: panic: %v", ErrRequestParsing, r)
		}
	}()

	c, err := contracts.Contract(schemaID)
	if err != nil {
		res.summary.StatusCode = &StatusInternalServerError
		res.err = fmt.Errorf("%w: %w", ErrSchemaNotFound, err)
		return res
	}

	validationErr := ValidationError{SchemaID: &schemaID, SchemaVersion: c.Version}

	method := strconv.B2S(ctx.Method())

	match, err := c.Lookup(method, strconv.B2S(ctx.Path()))
	switch {
	case errors.Is(err, router.ErrNotFound):
		validationErr.Code = ErrCodeNotFound
		validationErr.Message = "method and path are not found"
		return res.invalid(&validationErr)
	case errors.Is(err, router.ErrMethodNotAllowed):
		validationErr.Code = ErrCodeMethodNotAllowed
		validationErr.Message = "method is not declared for the path"
		return res.invalid(&validationErr)
	case err != nil:
		res.summary.StatusCode = &StatusInternalServerError
		res.err = err
		return res
	}

	res.summary.Template = match.Template
	res.summary.Operation = match.Operation.ID
	res.summary.Captures = match.Captures

	report, err := c.Validate(match, validator.NewRequestFromFastHTTP(ctx))
	if err != nil {
		var ctErr *validator.ContentTypeError
		if errors.As(err, &ctErr) {
			validationErr.Code = ErrCodeInvalidContent
			validationErr.Message = ctErr.Error()
			validationErr.ContentTypes = &ContentTypes{Acceptable: ctErr.Acceptable, Given: ctErr.Given}
			return res.invalid(&validationErr)
		}
		res.summary.StatusCode = &StatusInternalServerError
		res.err = fmt.Errorf("%w: %w", ErrRequestParsing, err)
		return res
	}

	if report.Empty() {
		res.summary.StatusCode = &StatusOK
		return res
	}

	messages := translator.For(string(ctx.Request.Header.Peek(fasthttp.HeaderAcceptLanguage)))

	validationErr.Code = ErrCodeInvalidParams
	validationErr.Message = invalidParamsMessage
	for _, inv := range report.Invalidities() {
		validationErr.Invalidities = append(validationErr.Invalidities, Invalidity{
			Key:     inv.Key,
			Code:    string(inv.Message),
			Options: inv.Options,
			Message: messages.Render(inv.Message, inv.Options),
		})
	}

	return res.invalid(&validationErr)
}

func (r *result) invalid(validationErr *ValidationError) *result {
	r.summary.StatusCode = &StatusForbidden
	r.validationErr = validationErr
	return r
}

package web

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
)

// ErrorResponse is the envelope of the error responses
type ErrorResponse struct {
	Error            string `json:"error"`
	DeveloperMessage string `json:"developerMessage,omitempty"`
	Details          any    `json:"details,omitempty"`
}

// Respond converts a Go value to JSON and sends it to the client.
func Respond(ctx *fasthttp.RequestCtx, data interface{}, statusCode int) error {
	// If there is nothing to marshal then set status code and return.
	if statusCode == http.StatusNoContent {
		ctx.SetStatusCode(statusCode)
		return nil
	}

	// Convert the response value to JSON.
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	// Set the content type and headers once we know marshaling has succeeded.
	ctx.SetContentType("application/json")

	// Write the status code to the response.
	ctx.SetStatusCode(statusCode)

	// Send the result back to the client.
	if _, err := ctx.Write(jsonData); err != nil {
		return err
	}

	return nil
}

// RespondError sends the error envelope back to the client and marks the response with
// the validation status header.
func RespondError(ctx *fasthttp.RequestCtx, statusCode int, code, developerMessage string, details any) error {

	ctx.SetUserValue(ValidationCode, code)
	ctx.Response.Header.Set(ValidationStatus, code)

	return Respond(ctx, ErrorResponse{
		Error:            code,
		DeveloperMessage: developerMessage,
		Details:          details,
	}, statusCode)
}

package web

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/savsgio/gotils/strconv"
	"github.com/valyala/fasthttp"
)

func headersString(visit func(func(key, value []byte))) string {
	var strBuild strings.Builder
	visit(func(key, value []byte) {
		strBuild.WriteString(strconv.B2S(key))
		strBuild.WriteString(":")
		strBuild.WriteString(strconv.B2S(value))
		strBuild.WriteString(`\r\n`)
	})
	return strBuild.String()
}

// LogRequestResponseAtTraceLevel dumps the request and the validation response
func LogRequestResponseAtTraceLevel(ctx *fasthttp.RequestCtx, logger zerolog.Logger) {

	if logger.GetLevel() != zerolog.TraceLevel {
		return
	}

	logger.Trace().
		Interface("request_id", ctx.UserValue(RequestID)).
		Str("method", strconv.B2S(ctx.Request.Header.Method())).
		Str("uri", strconv.B2S(ctx.Request.URI().RequestURI())).
		Str("headers", headersString(ctx.Request.Header.VisitAll)).
		Str("body", strings.ReplaceAll(strconv.B2S(ctx.Request.Body()), "\n", `\r\n`)).
		Str("client_address", ctx.RemoteAddr().String()).
		Msg("new request")

	logger.Trace().
		Interface("request_id", ctx.UserValue(RequestID)).
		Int("status_code", ctx.Response.StatusCode()).
		Str("headers", headersString(ctx.Response.Header.VisitAll)).
		Str("body", strings.ReplaceAll(string(ctx.Response.Body()), "\n", `\r\n`)).
		Str("client_address", ctx.RemoteAddr().String()).
		Msg("response from the Contract Firewall")
}

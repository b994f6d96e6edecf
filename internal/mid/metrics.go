package mid

import (
	"time"

	"github.com/valyala/fasthttp"

	"github.com/wallarm/contract-firewall/internal/platform/metrics"
	"github.com/wallarm/contract-firewall/internal/platform/web"
)

// Metrics counts the requests by the response status and observes the processing time.
// The schema ID is taken from the request user values set by the validation handler.
func Metrics(m metrics.Metrics) web.Middleware {

	// This is the actual middleware function to be executed.
	mw := func(before web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx *fasthttp.RequestCtx) error {
			start := time.Now()

			err := before(ctx)

			schemaID, _ := ctx.UserValue(web.SchemaID).(int)
			statusCode := ctx.Response.StatusCode()
			if err != nil {
				m.IncErrorTypeCounter("request processing error", schemaID)
				// the error middleware responds with the internal error
				statusCode = fasthttp.StatusInternalServerError
			}
			m.IncHTTPRequestStat(start, schemaID, statusCode)

			return err
		}

		return h
	}

	return mw
}

package mid

import (
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/wallarm/contract-firewall/internal/platform/web"
)

// Errors handles errors coming out of the call chain. Unexpected errors are logged and
// the client receives the internal error envelope.
func Errors(logger zerolog.Logger) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(before web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx *fasthttp.RequestCtx) error {

			// Run the handler chain and catch any propagated error.
			if err := before(ctx); err != nil {

				// Log the error.
				logger.Error().
					Err(err).
					Interface("request_id", ctx.UserValue(web.RequestID)).
					Bytes("host", ctx.Request.Header.Host()).
					Bytes("path", ctx.Path()).
					Bytes("method", ctx.Request.Header.Method()).
					Msg("request processing error")

				// Respond to the error.
				ctx.Response.Reset()
				if err := web.RespondError(ctx, fasthttp.StatusInternalServerError, web.ValidationInternal, "", nil); err != nil {
					return err
				}
			}

			// The error has been handled so we can stop propagating it.
			return nil
		}

		return h
	}

	return m
}

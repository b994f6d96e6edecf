package mid

import (
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/wallarm/contract-firewall/internal/platform/web"
)

// Panics turns a panic raised while validating a request into the handler error,
// so the Errors middleware answers with the internal error and Metrics counts it.
func Panics(logger zerolog.Logger) web.Middleware {
	return func(next web.Handler) web.Handler {
		return func(ctx *fasthttp.RequestCtx) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				err = errors.Errorf("panic: %v", r)
				logger.Error().
					Interface("request_id", ctx.UserValue(web.RequestID)).
					Bytes("path", ctx.Path()).
					Bytes("method", ctx.Method()).
					Msg("recovered from panic during request validation")
				logger.Debug().Bytes("stack", debug.Stack()).Msg("panic stack trace")
			}()

			return next(ctx)
		}
	}
}

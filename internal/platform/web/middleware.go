package web

import "github.com/valyala/fasthttp"

// Handler processes the request and returns the errors it could not respond with
type Handler func(ctx *fasthttp.RequestCtx) error

// Middleware wraps the handler with the code running before and after it
type Middleware func(Handler) Handler

// WrapMiddleware wraps the handler with the middlewares. The first middleware of the
// slice runs first. Nil middlewares are skipped.
func WrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] == nil {
			continue
		}
		handler = mw[i](handler)
	}

	return handler
}

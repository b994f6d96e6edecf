package web

import (
	"os"
	"runtime/debug"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const (
	ValidationStatus       = "APIFW-Validation-Status"
	XWallarmSchemaIDHeader = "X-WALLARM-SCHEMA-ID"

	ValidationValid          = "valid"
	ValidationInvalidParams  = "invalid_params"
	ValidationInvalidContent = "invalid_content"
	ValidationNotFound       = "not_found"
	ValidationNotAllowed     = "method_not_allowed"
	ValidationInternal       = "internal_error"
	ValidationNoSchema       = "schema_not_found"

	RequestID       = "__wallarm_contractfw_request_id"
	MatchedTemplate = "__wallarm_contractfw_template"
	ValidationCode  = "__wallarm_contractfw_validation_code"
	SchemaID        = "__wallarm_contractfw_schema_id"
)

// App is the entrypoint into our application and what configures our context
// object for each of our http handlers. Every request is passed to the single
// validation handler.
type App struct {
	Log      zerolog.Logger
	shutdown chan os.Signal
	mw       []Middleware
	handler  Handler
	lock     *sync.RWMutex
}

// NewApp creates an App value. The lock is held for reading while the handler runs, so
// the contract can be swapped by the holder of the write lock.
func NewApp(lock *sync.RWMutex, shutdown chan os.Signal, logger zerolog.Logger, mw ...Middleware) *App {
	return &App{
		Log:      logger,
		shutdown: shutdown,
		mw:       mw,
		lock:     lock,
	}
}

// Handle sets the handler of the requests
func (a *App) Handle(handler Handler, mw ...Middleware) {

	// First wrap handler specific middleware around this handler.
	handler = WrapMiddleware(mw, handler)

	// Add the application's general middleware to the handler chain.
	a.handler = WrapMiddleware(a.mw, handler)
}

// MainHandler passes the request to the validation handler
func (a *App) MainHandler(ctx *fasthttp.RequestCtx) {

	// handle panic
	defer func() {
		if r := recover(); r != nil {
			a.Log.Error().Msgf("panic: %v", r)

			// Log the Go stack trace for this panic'd goroutine.
			a.Log.Debug().Msgf("%s", debug.Stack())
			return
		}
	}()

	// Add request ID
	ctx.SetUserValue(RequestID, uuid.NewString())

	if a.handler == nil {
		ctx.Error("", fasthttp.StatusServiceUnavailable)
		return
	}

	// read lock for a contract update
	if a.lock != nil {
		a.lock.RLock()
		defer a.lock.RUnlock()
	}

	if err := a.handler(ctx); err != nil {
		a.Log.Error().
			Err(err).
			Interface("request_id", ctx.UserValue(RequestID)).
			Bytes("host", ctx.Request.Header.Host()).
			Bytes("path", ctx.Path()).
			Bytes("method", ctx.Request.Header.Method()).
			Msg("Error in the request handler")

		a.SignalShutdown()
	}
}

// SignalShutdown is used to gracefully shutdown the app when an integrity
// issue is identified.
func (a *App) SignalShutdown() {
	if a.shutdown == nil {
		return
	}
	select {
	case a.shutdown <- syscall.SIGTERM:
	default:
	}
}

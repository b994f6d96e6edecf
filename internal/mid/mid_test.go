package mid

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/wallarm/contract-firewall/internal/platform/web"
)

type requestStat struct {
	schemaID   int
	statusCode int
}

type recordingMetrics struct {
	errors   []string
	requests []requestStat
}

func (r *recordingMetrics) IncErrorTypeCounter(err string, _ int) {
	r.errors = append(r.errors, err)
}

func (r *recordingMetrics) IncInvalidityCounter(string, int) {}

func (r *recordingMetrics) IncUnformattedCounter(string, int) {}

func (r *recordingMetrics) IncHTTPRequestStat(_ time.Time, schemaID int, statusCode int) {
	r.requests = append(r.requests, requestStat{schemaID: schemaID, statusCode: statusCode})
}

func TestErrors(t *testing.T) {

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := web.WrapMiddleware([]web.Middleware{Errors(logger)}, func(ctx *fasthttp.RequestCtx) error {
		ctx.SetStatusCode(fasthttp.StatusOK)
		return errors.New("storage is gone")
	})

	var ctx fasthttp.RequestCtx
	require.NoError(t, handler(&ctx))

	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error":"internal_error"}`, string(ctx.Response.Body()))
	assert.Contains(t, buf.String(), "storage is gone")
}

func TestPanics(t *testing.T) {

	handler := web.WrapMiddleware([]web.Middleware{Panics(zerolog.Nop())}, func(ctx *fasthttp.RequestCtx) error {
		panic("broken contract")
	})

	var ctx fasthttp.RequestCtx
	err := handler(&ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken contract")

	// a recovered panic reaches the client as the internal error
	handler = web.WrapMiddleware([]web.Middleware{Errors(zerolog.Nop()), Panics(zerolog.Nop())}, func(ctx *fasthttp.RequestCtx) error {
		panic("broken contract")
	})
	require.NoError(t, handler(&ctx))
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
}

func TestMIMETypeIdentifier(t *testing.T) {

	var detected string
	final := func(ctx *fasthttp.RequestCtx) error {
		detected = string(ctx.Request.Header.ContentType())
		return nil
	}
	handler := web.WrapMiddleware([]web.Middleware{MIMETypeIdentifier(zerolog.Nop())}, final)

	t.Run("plain body", func(t *testing.T) {
		var ctx fasthttp.RequestCtx
		ctx.Request.SetBody([]byte(`{"name":"book","price":10}`))

		require.NoError(t, handler(&ctx))
		assert.Equal(t, "application/json", detected)
	})

	t.Run("compressed body", func(t *testing.T) {
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		_, err := w.Write([]byte(`<?xml version="1.0"?><item><name>book</name></item>`))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		var ctx fasthttp.RequestCtx
		ctx.Request.Header.SetContentEncoding("gzip")
		ctx.Request.SetBody(buf.Bytes())

		require.NoError(t, handler(&ctx))
		assert.True(t, strings.HasPrefix(detected, "text/xml"), detected)
	})

	t.Run("declared content type", func(t *testing.T) {
		var ctx fasthttp.RequestCtx
		ctx.Request.Header.SetContentType("application/x-www-form-urlencoded")
		ctx.Request.SetBody([]byte(`{"name":"book"}`))

		require.NoError(t, handler(&ctx))
		assert.Equal(t, "application/x-www-form-urlencoded", detected)
	})

	t.Run("broken compressed body", func(t *testing.T) {
		var ctx fasthttp.RequestCtx
		ctx.Request.Header.SetContentEncoding("gzip")
		ctx.Request.SetBody([]byte(`{"name":"book"}`))

		require.NoError(t, handler(&ctx))
		assert.Empty(t, detected)
	})
}

func TestMetrics(t *testing.T) {

	m := &recordingMetrics{}

	var handler web.Handler = func(ctx *fasthttp.RequestCtx) error {
		ctx.SetUserValue(web.SchemaID, 3)
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		return nil
	}
	handler = web.WrapMiddleware([]web.Middleware{Metrics(m)}, handler)

	var ctx fasthttp.RequestCtx
	require.NoError(t, handler(&ctx))

	require.Len(t, m.requests, 1)
	assert.Equal(t, requestStat{schemaID: 3, statusCode: fasthttp.StatusBadRequest}, m.requests[0])
	assert.Empty(t, m.errors)

	handler = web.WrapMiddleware([]web.Middleware{Metrics(m)}, func(ctx *fasthttp.RequestCtx) error {
		ctx.SetUserValue(web.SchemaID, 5)
		return errors.New("contract set is closed")
	})

	var failed fasthttp.RequestCtx
	require.Error(t, handler(&failed))

	require.Len(t, m.requests, 2)
	assert.Equal(t, requestStat{schemaID: 5, statusCode: fasthttp.StatusInternalServerError}, m.requests[1])
	assert.Equal(t, []string{"request processing error"}, m.errors)
}

func TestLogger(t *testing.T) {

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	handler := web.WrapMiddleware([]web.Middleware{Logger(logger)}, func(ctx *fasthttp.RequestCtx) error {
		ctx.SetUserValue(web.ValidationCode, web.ValidationNotFound)
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		return nil
	})

	var ctx fasthttp.RequestCtx
	ctx.Request.SetRequestURI("/unknown")
	require.NoError(t, handler(&ctx))

	out := buf.String()
	assert.Contains(t, out, "Received request from client")
	assert.Contains(t, out, "Method or path not found in the contract")
	assert.Contains(t, out, `"status_code":404`)
}

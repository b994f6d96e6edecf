package mid

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/wallarm/contract-firewall/internal/platform/web"
)

// MIMETypeIdentifier identifies the MIME type of the content in case of CT header is missing
func MIMETypeIdentifier(logger zerolog.Logger) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(before web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx *fasthttp.RequestCtx) error {

			if len(ctx.Request.Header.ContentType()) == 0 && len(ctx.Request.Body()) > 0 {

				contentEncoding := string(ctx.Request.Header.ContentEncoding())
				switch contentEncoding {
				case "":
					ctx.Request.Header.SetContentType(mimetype.Detect(ctx.Request.Body()).String())
				default:
					// decode request body
					body, err := web.GetDecompressedRequestBody(&ctx.Request, contentEncoding)
					if err != nil {
						logger.Debug().
							Err(err).
							Interface("request_id", ctx.UserValue(web.RequestID)).
							Bytes("host", ctx.Request.Header.Host()).
							Bytes("path", ctx.Path()).
							Bytes("method", ctx.Request.Header.Method()).
							Msg("request body decompression error")
						break
					}

					mtype, err := mimetype.DetectReader(body)
					body.Close()
					if err != nil {
						logger.Debug().
							Err(err).
							Interface("request_id", ctx.UserValue(web.RequestID)).
							Msg("request body mime type detection error")
						break
					}

					// set the identified mime type
					ctx.Request.Header.SetContentType(mtype.String())
				}
			}

			return before(ctx)
		}

		return h
	}

	return m
}

package web

import (
	"bytes"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

var ErrUnsupportedEncoding = errors.New("unsupported content encoding")

// GetDecompressedRequestBody returns the request body decoded according to the
// Content-Encoding value
func GetDecompressedRequestBody(req *fasthttp.Request, contentEncoding string) (io.ReadCloser, error) {
	return Decompress(req.Body(), contentEncoding)
}

// Decompress wraps the body into the reader of the content encoding. Encodings are applied
// in the order they are listed in the header, so they are removed from the last one.
func Decompress(body []byte, contentEncoding string) (io.ReadCloser, error) {

	var encodings []string
	for _, e := range strings.Split(contentEncoding, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" && e != "identity" {
			encodings = append(encodings, e)
		}
	}

	if len(encodings) == 0 {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	data := body
	for i := len(encodings) - 1; i >= 0; i-- {

		var reader io.Reader
		switch encodings[i] {
		case "gzip", "x-gzip":
			gr, err := gzip.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, errors.Wrap(err, "gzip")
			}
			defer gr.Close()
			reader = gr
		case "deflate":
			fr := flate.NewReader(bytes.NewReader(data))
			defer fr.Close()
			reader = fr
		case "br":
			reader = brotli.NewReader(bytes.NewReader(data))
		default:
			return nil, errors.Wrapf(ErrUnsupportedEncoding, "%q", encodings[i])
		}

		decoded, err := io.ReadAll(reader)
		if err != nil {
			return nil, errors.Wrap(err, encodings[i])
		}
		data = decoded
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

package metrics

import (
	"time"
)

type Metrics interface {
	IncErrorTypeCounter(err string, schemaID int)
	IncInvalidityCounter(code string, schemaID int)
	IncUnformattedCounter(kind string, schemaID int)
	IncHTTPRequestStat(start time.Time, schemaID int, statusCode int)
}

// Options of the metrics endpoint
type Options struct {
	EndpointName string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

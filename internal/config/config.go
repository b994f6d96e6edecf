package config

import (
	"time"

	"github.com/ardanlabs/conf"
)

const (
	EngineKinOpenAPI = "kinopenapi"
	EngineJSONSchema = "jsonschema"
)

// ValidatorMode is the configuration of the contract validation service
type ValidatorMode struct {
	conf.Version
	APIFWServer `mapstructure:",squash"`
	Contract    Contract
	Validation  Validation
	Cache       Cache
	Locale      Locale
	Metrics     Metrics
	TLS         TLS

	LogLevel  string `conf:"default:INFO" validate:"oneof=TRACE DEBUG INFO ERROR WARNING"`
	LogFormat string `conf:"default:TEXT" validate:"oneof=TEXT JSON"`
}

// Contract configures where the contract is loaded from. Path is a file path or a URL,
// DBPath points to the SQLite database with the contracts stored by the schema ID.
type Contract struct {
	Path         string        `conf:"env:CONTRACT_PATH"`
	DBPath       string        `conf:"env:CONTRACT_DB_PATH"`
	SchemaID     int           `conf:"default:0,env:CONTRACT_SCHEMA_ID" validate:"gte=0"`
	UpdatePeriod time.Duration `conf:"default:0s,env:CONTRACT_UPDATE_PERIOD"`
	CustomHeader CustomHeader
}

type CustomHeader struct {
	Name  string `conf:"env:CONTRACT_CUSTOM_HEADER_NAME"`
	Value string `conf:"env:CONTRACT_CUSTOM_HEADER_VALUE,mask"`
}

// Validation configures the schema engine and the statuses of the rejected requests
type Validation struct {
	Engine                    string `conf:"default:kinopenapi,env:SCHEMA_ENGINE" validate:"oneof=kinopenapi jsonschema"`
	InvalidParamsStatusCode   int    `conf:"default:400,env:INVALID_PARAMS_STATUS_CODE" validate:"HttpStatusCodes"`
	InvalidContentStatusCode  int    `conf:"default:400,env:INVALID_CONTENT_STATUS_CODE" validate:"HttpStatusCodes"`
	AddValidationStatusHeader bool   `conf:"default:true,env:ADD_VALIDATION_STATUS_HEADER"`
}

type Cache struct {
	MatcherEntries int64         `conf:"default:10000,env:MATCHER_CACHE_SIZE" validate:"gte=0"`
	SchemaEntries  int64         `conf:"default:1000,env:SCHEMA_CACHE_SIZE" validate:"gt=0"`
	SchemaTTL      time.Duration `conf:"default:1h,env:SCHEMA_CACHE_TTL"`
}

type Locale struct {
	Default string `conf:"default:en,env:LOCALE" validate:"required"`
}

type TLS struct {
	CertsPath string `conf:"default:certs"`
	CertFile  string `conf:"default:localhost.crt"`
	CertKey   string `conf:"default:localhost.key"`
}

type APIFWServer struct {
	APIHost            string        `conf:"default:http://0.0.0.0:8282,env:URL" validate:"required,url"`
	HealthAPIHost      string        `conf:"default:0.0.0.0:9667,env:HEALTH_HOST" validate:"required"`
	ReadTimeout        time.Duration `conf:"default:5s"`
	WriteTimeout       time.Duration `conf:"default:5s"`
	ReadBufferSize     int           `conf:"default:8192"`
	WriteBufferSize    int           `conf:"default:8192"`
	MaxRequestBodySize int           `conf:"default:4194304"`
	DisableKeepalive   bool          `conf:"default:false"`
	MaxConnsPerIP      int           `conf:"default:0"`
	MaxRequestsPerConn int           `conf:"default:0"`
}

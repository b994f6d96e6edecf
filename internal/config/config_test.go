package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {

	cfg, err := Load([]string{"--contract-path", "/etc/contract/items.yaml"})
	require.NoError(t, err)

	assert.Equal(t, "/etc/contract/items.yaml", cfg.Contract.Path)
	assert.Equal(t, EngineKinOpenAPI, cfg.Validation.Engine)
	assert.Equal(t, 400, cfg.Validation.InvalidParamsStatusCode)
	assert.Equal(t, 400, cfg.Validation.InvalidContentStatusCode)
	assert.Equal(t, "en", cfg.Locale.Default)
	assert.Equal(t, int64(1000), cfg.Cache.SchemaEntries)
	assert.Equal(t, time.Hour, cfg.Cache.SchemaTTL)
	assert.Equal(t, "http://0.0.0.0:8282", cfg.APIHost)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadEnvironment(t *testing.T) {

	t.Setenv("APIFW_CONTRACT_DB_PATH", "/var/lib/contracts.db")
	t.Setenv("APIFW_SCHEMA_ENGINE", "JSONSchema")
	t.Setenv("APIFW_LOCALE", "de")
	t.Setenv("APIFW_LOG_LEVEL", "debug")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/contracts.db", cfg.Contract.DBPath)
	assert.Equal(t, EngineJSONSchema, cfg.Validation.Engine)
	assert.Equal(t, "de", cfg.Locale.Default)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoadOverlay(t *testing.T) {

	dir := t.TempDir()
	overlay := []byte("contract:\n  path: ./overlay.yaml\nvalidation:\n  invalidparamsstatuscode: 422\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName+".yaml"), overlay, 0o600))

	cfg, err := Load([]string{"--contract-path", "/etc/contract/items.yaml"}, dir)
	require.NoError(t, err)

	assert.Equal(t, "./overlay.yaml", cfg.Contract.Path)
	assert.Equal(t, 422, cfg.Validation.InvalidParamsStatusCode)
}

func TestLoadErrors(t *testing.T) {

	tests := []struct {
		name string
		args []string
	}{
		{name: "no contract source", args: nil},
		{name: "unknown engine", args: []string{"--contract-path", "c.yaml", "--validation-engine", "draft7"}},
		{name: "invalid status code", args: []string{"--contract-path", "c.yaml", "--validation-invalid-params-status-code", "999"}},
		{name: "invalid log format", args: []string{"--contract-path", "c.yaml", "--log-format", "XML"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			require.Error(t, err)
		})
	}

	_, err := Load([]string{"--help"})
	require.ErrorIs(t, err, conf.ErrHelpWanted)
}

func TestNewLogger(t *testing.T) {

	var buf bytes.Buffer

	logger, err := NewLogger(&buf, "warning", "json")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("skipped")
	logger.Warn().Str("kind", "other").Msg("unformatted schema error")
	assert.NotContains(t, buf.String(), "skipped")
	assert.Contains(t, buf.String(), `"kind":"other"`)

	buf.Reset()
	logger, err = NewLogger(&buf, "TRACE", "TEXT")
	require.NoError(t, err)
	logger.Trace().Msg("new request")
	assert.Contains(t, buf.String(), "new request")

	_, err = NewLogger(&buf, "VERBOSE", "TEXT")
	require.Error(t, err)

	_, err = NewLogger(&buf, "INFO", "XML")
	require.Error(t, err)
}

func TestZerologAdapter(t *testing.T) {

	var buf bytes.Buffer
	adapter := ZerologAdapter{Logger: zerolog.New(&buf)}

	adapter.Printf("error when serving connection %q: %v\n", "127.0.0.1:80", "timeout")
	assert.Contains(t, buf.String(), `error when serving connection \"127.0.0.1:80\": timeout`)
}

func TestValidateStatusList(t *testing.T) {

	cfg := ValidatorMode{
		APIFWServer: APIFWServer{APIHost: "http://0.0.0.0:8282", HealthAPIHost: "0.0.0.0:9667"},
		Contract:    Contract{Path: "c.yaml"},
		Validation: Validation{
			Engine:                   EngineKinOpenAPI,
			InvalidParamsStatusCode:  422,
			InvalidContentStatusCode: 415,
		},
		Cache:     Cache{SchemaEntries: 1},
		Locale:    Locale{Default: "en"},
		Metrics:   Metrics{EndpointName: "metrics", Host: "0.0.0.0:9010"},
		LogLevel:  "INFO",
		LogFormat: "TEXT",
	}
	require.NoError(t, Validate(&cfg))

	for _, code := range []int{499, 200, 302, 600} {
		cfg.Validation.InvalidContentStatusCode = code
		require.Error(t, Validate(&cfg), code)
	}
}

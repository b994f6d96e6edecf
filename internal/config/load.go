package config

import (
	"strings"

	"github.com/ardanlabs/conf"
	"github.com/go-playground/validator"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/wallarm/contract-firewall/internal/version"
)

// ConfigFileName is the name of the optional YAML overlay looked up in the working directory
const ConfigFileName = "apifw"

// Load parses the configuration from the command line arguments and the APIFW_ prefixed
// environment variables, applies the optional apifw.yaml overlay and validates the result.
// conf.ErrHelpWanted and conf.ErrVersionWanted are returned as is.
func Load(args []string, configPaths ...string) (*ValidatorMode, error) {

	var cfg ValidatorMode
	cfg.Version.SVN = version.Version
	cfg.Version.Desc = version.ProjectName

	if err := conf.Parse(args, version.Namespace, &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) || errors.Is(err, conf.ErrVersionWanted) {
			return nil, err
		}
		return nil, errors.Wrap(err, "parsing config")
	}

	// load yaml conf
	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err == nil {
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, errors.Wrap(err, "yaml config file decoding")
		}
	}

	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)
	cfg.LogFormat = strings.ToUpper(cfg.LogFormat)
	cfg.Validation.Engine = strings.ToLower(cfg.Validation.Engine)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the parameter values
func Validate(cfg *ValidatorMode) error {

	validate := validator.New()

	if err := validate.RegisterValidation("HttpStatusCodes", ValidateStatusList); err != nil {
		return errors.Errorf("configuration validator error: %s", err.Error())
	}

	if err := validate.Struct(cfg); err != nil {

		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for _, err := range vErrs {
				switch err.Tag() {
				case "gt", "gte":
					return errors.Errorf("configuration validator error: parameter %s should be %s %s. Actual value: %v", err.Field(), err.Tag(), err.Param(), err.Value())
				case "url":
					return errors.Errorf("configuration validator error: parameter %s should be a string in URL format. Example: http://localhost:8080/; actual value: %v", err.Field(), err.Value())
				case "oneof":
					return errors.Errorf("configuration validator error: parameter %s should have one of the following value: %s; actual value: %v", err.Field(), err.Param(), err.Value())
				case "HttpStatusCodes":
					return errors.Errorf("configuration validator error: parameter %s should be a client or server error HTTP status code; actual value: %v", err.Field(), err.Value())
				}
			}
		}
		return errors.Wrap(err, "configuration validator error")
	}

	if cfg.Contract.Path == "" && cfg.Contract.DBPath == "" {
		return errors.New("configuration validator error: either the contract path or the contract database path is required")
	}

	return nil
}

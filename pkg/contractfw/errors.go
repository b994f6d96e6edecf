package contractfw

import (
	"errors"
	"fmt"

	"github.com/wallarm/contract-firewall/internal/platform/loader"
)

const (
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInvalidParams    = "invalid_params"
	ErrCodeInvalidContent   = "invalid_content"
)

var (
	ErrSchemaNotFound     = fmt.Errorf("schema not found")
	ErrRequestParsing     = fmt.Errorf("request parsing error")
	ErrContractParsing    = fmt.Errorf("contract parsing error")
	ErrContractValidation = fmt.Errorf("contract validation error")
	ErrContractLoading    = fmt.Errorf("contracts loading error")
	ErrHandlersInit       = fmt.Errorf("handlers initialization error")
	ErrStorageDowngrade   = fmt.Errorf("version of the new contract storage is lower than the current one")
)

// wrapContractErrs wraps errors by the following high level errors ErrContractValidation, ErrContractParsing, ErrContractLoading
func wrapContractErrs(err error) error {

	switch {
	case errors.Is(err, loader.ErrContractValidation):
		return fmt.Errorf("%w: %w", ErrContractValidation, err)
	case errors.Is(err, loader.ErrContractParsing):
		return fmt.Errorf("%w: %w", ErrContractParsing, err)
	}

	return fmt.Errorf("%w: %w", ErrContractLoading, err)
}

package cli

import (
	"errors"

	"github.com/dmitrijs2005/allergozyme/internal/common"
)

const (
	ExitCodeSuccess    = 0
	ExitCodeGeneric    = 1
	ExitCodeValidation = 2
	ExitCodeNotFound   = 3
	ExitCodeAuthFailed = 5
	ExitCodeConflict   = 6
	ExitCodeNetwork    = 7
)

// ExitCode maps an error kind to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, common.ErrValidation):
		return ExitCodeValidation
	case errors.Is(err, common.ErrNotFound):
		return ExitCodeNotFound
	case errors.Is(err, common.ErrAuth):
		return ExitCodeAuthFailed
	case errors.Is(err, common.ErrConflict):
		return ExitCodeConflict
	case errors.Is(err, common.ErrNetwork):
		return ExitCodeNetwork
	default:
		return ExitCodeGeneric
	}
}

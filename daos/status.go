package daos

import (
	"fmt"

	"github.com/pkg/errors"
)

// Store status codes. 0 means success, negative values are errors. The
// numbering follows the convention of the store's error table.
const (
	StatusSuccess = 0

	statusBase = 1000

	StatusNoMem    = -(statusBase + 1)
	StatusInval    = -(statusBase + 3)
	StatusExist    = -(statusBase + 4)
	StatusNonexist = -(statusBase + 5)
	StatusIO       = -(statusBase + 9)
	StatusNoSys    = -(statusBase + 17)
	StatusRec2Big  = -(statusBase + 19)
)

// Errstr returns a human-readable description of a status code.
func Errstr(status int) string {
	switch status {
	case StatusSuccess:
		return "success"
	case StatusNoMem:
		return "out of memory"
	case StatusInval:
		return "invalid parameters"
	case StatusExist:
		return "entity already exists"
	case StatusNonexist:
		return "nonexistent entity"
	case StatusIO:
		return "i/o error"
	case StatusNoSys:
		return "function not implemented"
	case StatusRec2Big:
		return "record is too big"
	default:
		return fmt.Sprintf("unknown status %d", status)
	}
}

// StatusError carries a negative store status up through the adapter.
type StatusError struct {
	Op   string
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: error: %s (%d)", e.Op, Errstr(e.Code), e.Code)
}

// StatusCode extracts the store status from an error returned by the adapter.
// It returns 0 if the error is nil and StatusNoSys if the error does not
// carry a status.
func StatusCode(err error) int {
	if err == nil {
		return StatusSuccess
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return StatusNoSys
}

func statusError(op string, status int) error {
	if status >= StatusSuccess {
		return nil
	}
	return errors.WithStack(&StatusError{Op: op, Code: status})
}

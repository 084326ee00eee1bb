package listparams

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownResource = errors.New("unknown resource")
)

// ServiceError represents a list params service error
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return "listparams service " + e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

package gateway

import "strings"

// BadRequestError reports a request that failed validation. Params holds
// one human-readable message per violation.
type BadRequestError struct {
	Params []string
}

func (e *BadRequestError) Error() string {
	return "bad request: " + strings.Join(e.Params, "; ")
}

func badRequest(params ...string) error {
	return &BadRequestError{Params: params}
}

// NotFoundError reports a catalog entity referenced by a query parameter
// that does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

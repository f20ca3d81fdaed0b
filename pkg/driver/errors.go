package driver

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNotMapped   = errors.New("driver: provider not mapped")
	ErrUnsupported = errors.New("driver: capability not supported")
	ErrRateLimited = errors.New("driver: rate limited by provider")
	ErrUnavailable = errors.New("driver: provider unavailable")
)

// NotFoundError reports a back-end entity (file, batch, deployment) that
// does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func notMapped(name string) error {
	return fmt.Errorf("%w: %q is not mapped", ErrNotMapped, name)
}

func unsupported(name, capability string) error {
	return fmt.Errorf("%w: %s does not support %s", ErrUnsupported, name, capability)
}

package quota

import (
	"errors"
	"fmt"
)

// ErrInvalidLimit is returned when a quota is created with a non-positive limit.
var ErrInvalidLimit = errors.New("quota limit must be positive")

// ErrIncompleteKey is returned when a write targets a key with an empty part.
var ErrIncompleteKey = errors.New("quota key is incomplete")

// NotFoundError reports that no ledger record matched. Entity is the label
// surfaced to callers ("quotas" for lookups, "quota" for updates).
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// ExceededError reports an exhausted quota.
type ExceededError struct {
	Balance int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("Exceeded quota, balance is %d", e.Balance)
}

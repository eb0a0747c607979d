package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName       = errors.New("venue name is empty")
	ErrNameTooLong     = errors.New("venue name is too long")
	ErrVenueNotFound   = errors.New("venue not found")
	ErrDuplicateName   = errors.New("venue already exists")
	ErrVenueInUse      = errors.New("venue is referenced by tickets")
	ErrInvalidPolicy   = errors.New("unknown delete policy")
	ErrLockNotAcquired = errors.New("catalog is busy")
)

// VenueInUseError is returned by a blocking delete. It matches ErrVenueInUse.
type VenueInUseError struct {
	VenueID int64
	Name    string
	Count   int
}

func (e *VenueInUseError) Error() string {
	return fmt.Sprintf("venue %q is referenced by %d ticket(s)", e.Name, e.Count)
}

func (e *VenueInUseError) Is(target error) bool {
	return target == ErrVenueInUse
}

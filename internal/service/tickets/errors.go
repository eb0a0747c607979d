package tickets

import (
	"errors"
)

var (
	ErrInvalidTicket    = errors.New("invalid ticket")
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrUnknownVenue     = errors.New("venue does not exist")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrForbidden        = errors.New("ticket belongs to another employee")
	ErrEmptyPatch       = errors.New("nothing to update")
)

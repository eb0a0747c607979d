package employees

import (
	"errors"
)

var (
	ErrInvalidEmployee    = errors.New("invalid employee")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrEmployeeExists     = errors.New("employee already exists")
	ErrEmailTaken         = errors.New("email already in use")
	ErrLoginTaken         = errors.New("login already in use")
	ErrInvalidCredentials = errors.New("invalid login or password")
)

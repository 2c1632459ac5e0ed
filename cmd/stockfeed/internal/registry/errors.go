package registry

import "errors"

var (
	ErrDuplicateTicker = errors.New("ticker already exists")
	ErrNotFound        = errors.New("stock not found")
	ErrInvalidStock    = errors.New("invalid stock")
)

package persistence

import "errors"

var ErrInvalidInput = errors.New("invalid input")

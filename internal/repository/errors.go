package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("resource not found")
	ErrIntegrity  = errors.New("integrity violation")
	ErrEmailInUse = errors.New("email already in use")
	ErrNotInOrder = fmt.Errorf("%w: product not in order", ErrNotFound)
)

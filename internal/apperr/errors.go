package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	ErrInvalidInput         = errors.New("invalid input")
	ErrIncompatibleTopology = errors.New("incompatible scene topology")
	ErrUnsupportedLODTarget = errors.New("LODs can only be applied to materials or nodes")
	ErrMalformedExtension   = errors.New("malformed extension payload")
)

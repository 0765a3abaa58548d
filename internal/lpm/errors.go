package lpm

import "errors"

var (
	// ErrDuplicateKey is returned when inserting a prefix that is already
	// present in the table.
	ErrDuplicateKey = errors.New("duplicate prefix")
	// ErrInvalidKey is returned for a prefix that can not be represented
	// in an IPv4 table.
	ErrInvalidKey = errors.New("invalid prefix")
)

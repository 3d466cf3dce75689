package model

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrEmptyInput  = errors.New("empty input")
	ErrInvalidDate = errors.New("invalid date")
)

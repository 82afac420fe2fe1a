package service

import "github.com/pkg/errors"

// Failure kinds of a prediction. Handlers map them to status codes with errors.Is;
// anything else is an internal error.
var (
	ErrInvalidInput   = errors.New("invalid image file")
	ErrModelNotLoaded = errors.New("model not loaded")
)

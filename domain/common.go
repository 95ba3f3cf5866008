package domain

import "errors"

var (
	MessageFailedBodyRequest    = "failed to process request body"
	MessageFailedProcessRequest = "failed to process request"

	ErrInvalidID = errors.New("invalid id")
)

package extract

import (
	"errors"
)

var (
	// request-shaped failures, surfaced synchronously by the API layer
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTaskNotFound    = errors.New("task not found")
	ErrNotReady        = errors.New("task not completed")

	// stage failures, recorded on the task and never raised past it
	ErrDiscoveryFailed   = errors.New("page discovery failed")
	ErrExtractionFailed  = errors.New("content extraction failed")
	ErrIntegrationFailed = errors.New("result integration failed")
)

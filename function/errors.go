package function

import "errors"

var (
	ErrInvalidHandler    = errors.New("handler must be a Handler or a SyncHandler")
	ErrInvalidConfig     = errors.New("invalid trigger configuration")
	ErrEmptyFunctionName = errors.New("function name cannot be empty")
	ErrDuplicateFunction = errors.New("duplicate function name")
	ErrFunctionNotFound  = errors.New("function not found")
	ErrQueueNotFound     = errors.New("queue not found")
	ErrAppStopped        = errors.New("app is stopped")
)

package dispatch

import "errors"

var (
	ErrUnknownProtocol = errors.New("dispatch: unknown protocol")
	ErrNoDispatcher    = errors.New("dispatch: dispatcher is required")
	ErrNoExecutor      = errors.New("dispatch: executor is required")
)

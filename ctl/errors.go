package ctl

import "errors"

var (
	// ErrRunFailed indicates the control binary could not be started or
	// exited non-zero, which means the server rejected its configuration.
	ErrRunFailed = errors.New("control command failed")

	// ErrBadReport indicates the control binary produced output that does
	// not follow the expected report format.
	ErrBadReport = errors.New("malformed control command report")
)

package worker

import "errors"

// ErrStopped is the reason given for requests the worker handed back unrun.
var ErrStopped = errors.New("round worker stopped")

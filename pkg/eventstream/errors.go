package eventstream

import "errors"

// ErrNilEvent indicates a nil understanding event payload was provided to a publisher.
var ErrNilEvent = errors.New("nil understanding event")

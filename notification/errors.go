package notification

import "errors"

var (
	ErrNilLogger   = errors.New("nil logger supplied")
	ErrNilWriter   = errors.New("nil writer supplied")
	ErrNilNotifier = errors.New("nil notifier supplied")
	ErrNilClock    = errors.New("nil clock supplied")
)

package lending

import "errors"

var (
	// ErrInvalidArgument is matched by every error caused by an argument outside its allowed range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNilActivityChecker is returned when NewManager is called without an ActivityChecker.
	ErrNilActivityChecker = errors.New("nil activity checker supplied")

	// ErrNilNotifier is returned when NewManager is called without a Notifier.
	ErrNilNotifier = errors.New("nil notifier supplied")
)

// InvalidArgumentError carries the exact message of an argument violation.
// It matches ErrInvalidArgument with errors.Is.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

// Is reports whether target is ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

package credentials

import (
	"errors"
	"fmt"
)

// StartupError reports a credentials file that could not be read. It is
// fatal: nothing is sent until the file loads.
type StartupError struct {
	Path string
	Err  error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("failed to load credentials file %s: %v", e.Path, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// IsStartupError reports whether err is or wraps a StartupError.
func IsStartupError(err error) bool {
	var se *StartupError
	return errors.As(err, &se)
}

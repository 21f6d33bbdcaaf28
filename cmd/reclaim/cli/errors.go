package cli

// SilentError wraps an error that has already been reported to the user;
// Execute maps it to a failing exit code without printing it again.
type SilentError struct {
	err error
}

// NewSilentError wraps err so it is not printed a second time.
func NewSilentError(err error) *SilentError {
	return &SilentError{err: err}
}

func (e *SilentError) Error() string { return e.err.Error() }

func (e *SilentError) Unwrap() error { return e.err }

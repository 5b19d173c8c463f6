package utils

// PermError marks an error that must not be retried.
type PermError struct {
	Err error
}

func (e PermError) Error() string {
	return e.Err.Error()
}

func (e PermError) Unwrap() error {
	return e.Err
}

func (e PermError) IsPermanent() bool {
	return true
}

package schedule

import "fmt"

// TransportError reports any failure of a schedule fetch: network error,
// non-2xx status or an undecodable body. Subtypes are not distinguished.
type TransportError struct {
	Direction Direction
	Err       error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("fetch %s schedule: %v", err.Direction, err.Err)
}

func (err *TransportError) Unwrap() error {
	return err.Err
}

package utils

import "fmt"

// ErrorWrapOrNil prefixes err with msg, passing nil through so it can wrap a
// call's result directly in a return statement.
func ErrorWrapOrNil(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case msg == "":
		return err
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

package importer

import (
	"errors"
	"fmt"
)

// BadInputError rejects a whole file before any row is touched.
type BadInputError struct {
	Message string
	Details any
}

func (e *BadInputError) Error() string {
	return e.Message
}

func badInput(format string, args ...any) error {
	return &BadInputError{Message: fmt.Sprintf(format, args...)}
}

func badInputWithDetails(details any, format string, args ...any) error {
	return &BadInputError{Message: fmt.Sprintf(format, args...), Details: details}
}

func IsBadInput(err error) bool {
	var target *BadInputError
	return errors.As(err, &target)
}

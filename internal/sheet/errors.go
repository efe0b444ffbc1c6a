package sheet

import (
	"errors"
	"fmt"
)

// ErrParse is matched by every ParseError
var ErrParse = errors.New("spreadsheet parse error")

// ParseError reports bytes that are not a readable spreadsheet
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrParse, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrParse, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParse) match any ParseError
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

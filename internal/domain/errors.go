package domain

import "errors"

// ErrValidation marks malformed domain input. Wrap it with
// fmt.Errorf("%w: detail") so callers can classify with errors.Is.
var ErrValidation = errors.New("domain: invalid input")

package analyst

import "errors"

// ErrNotFound indicates no stored analysis matches.
var ErrNotFound = errors.New("analysis not found")

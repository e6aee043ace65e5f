package ai

import "errors"

// ErrNoHistory is returned when no analysis repository is configured.
var ErrNoHistory = errors.New("analysis history not configured")

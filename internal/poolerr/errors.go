// Package poolerr collects the sentinel errors shared across the pool
// manager's subsystems: package-level vars that callers match with errors.Is.
package poolerr

import "errors"

var (
	ErrNoCandidates  = errors.New("no candidate providers")
	ErrInvalidFamily = errors.New("invalid family")
	ErrEntryNotFound = errors.New("entry not found")
	ErrPersistFailed = errors.New("persistence operation failed")
)

package updater

import "errors"

var (
	// ErrAuthDenied marks a merge that was rejected because the acting
	// principal does not own the fork that would be changed.
	ErrAuthDenied = errors.New("authorization denied")
	// ErrConflictSkipped marks a merge that failed with a conflict
	// while the ignore action is configured.
	ErrConflictSkipped = errors.New("merge conflict, pull request skipped")
)

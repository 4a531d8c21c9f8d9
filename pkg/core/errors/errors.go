package errors

import "errors"

// Fatal errors abort the run before or during startup.
var (
	ErrConfiguration = errors.New("plexsubs: missing or invalid configuration")
	ErrConnection    = errors.New("plexsubs: cannot reach server")
	ErrUnauthorized  = errors.New("plexsubs: unauthorized (invalid credentials or token)")
)

// Per-item errors are caught at the item boundary; the run continues.
var (
	ErrNotFound    = errors.New("plexsubs: no matching subtitle found")
	ErrRateLimited = errors.New("plexsubs: rate limit exceeded")
	ErrPermission  = errors.New("plexsubs: no write permission in target directory")
	ErrQuota       = errors.New("plexsubs: download quota exceeded")
)

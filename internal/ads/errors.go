package ads

import "errors"

var (
	// ErrQuotaExceeded marks provider rejections recoverable by rotating to
	// the next credential.
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrNotFound marks lookups for ids the provider or store does not know.
	ErrNotFound = errors.New("not found")
)

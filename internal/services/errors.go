package services

import "errors"

// isDomainError reports whether err wraps one of the sentinels that should
// pass through to the caller unchanged.
func isDomainError(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

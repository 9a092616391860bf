package utils

import "errors"

var (
	ErrIdeaNotFound       = errors.New("idea not found")
	ErrInvalidIdea        = errors.New("invalid idea")
	ErrIdeaTextTooShort   = errors.New("idea text too short")
	ErrInvalidPage        = errors.New("invalid page parameter")
	ErrInvalidPlan        = errors.New("invalid plan")
	ErrInvalidExport      = errors.New("invalid export request")
	ErrExportDenied       = errors.New("export not allowed")
	ErrFeatureLocked      = errors.New("feature not included in plan")
	ErrUsageLimit         = errors.New("monthly usage limit reached")
	ErrInvalidTransition  = errors.New("invalid subscription transition")
	ErrNoSubscription     = errors.New("no subscription")
	ErrInvalidContentType = errors.New("invalid content type")
	ErrInvalidAction      = errors.New("invalid notification action")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNewsletterBlocked  = errors.New("newsletter blocked")
	ErrUpstream           = errors.New("upstream error")
	ErrDatabaseError      = errors.New("database error")
)

package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Generation errors
	ErrInvalidTrackCount = fmt.Errorf("track count must be a positive even number")
	ErrGenerationFailed  = fmt.Errorf("generation failed")
	ErrSynthesisTimeout  = fmt.Errorf("synthesis timed out")
	ErrSynthesisFailed   = fmt.Errorf("synthesis failed")
	ErrRunCancelled      = fmt.Errorf("run cancelled")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrScheduleNotFound   = fmt.Errorf("schedule not found")
	ErrCacheMiss          = fmt.Errorf("cache entry not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig  = fmt.Errorf("invalid configuration")
	ErrInsecureConfig = fmt.Errorf("insecure configuration")

	// Authentication errors
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrInvalidCredentials = fmt.Errorf("invalid username or password")
	ErrRateLimited        = fmt.Errorf("too many attempts")

	// Metadata lookup errors
	ErrUnresolvableURL = fmt.Errorf("unresolvable video URL")
	ErrLookupFailed    = fmt.Errorf("video lookup failed")
	ErrTimeout         = fmt.Errorf("operation timed out")

	// Storage errors
	ErrNotFound = fmt.Errorf("not found")
	ErrConflict = fmt.Errorf("already exists")
	ErrStorage  = fmt.Errorf("storage failure")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

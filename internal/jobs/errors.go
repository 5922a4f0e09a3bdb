package jobs

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found by name
	ErrJobNotFound = errors.New("job not found")
	// ErrJobDisabled is returned when running a disabled job manually
	ErrJobDisabled = errors.New("job disabled")
)

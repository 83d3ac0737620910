package swc

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned by New for an unusable counter configuration.
	ErrConfiguration = errors.New("swc: invalid configuration")

	// ErrInvalidRange is returned when a requested time range is empty or
	// starts in the future.
	ErrInvalidRange = errors.New("swc: invalid time range")

	// ErrTooFarInPast is returned when incrementing a bucket that has already
	// left the observation period.
	ErrTooFarInPast = errors.New("swc: time too far in the past")

	// ErrAnomalous is returned by a blocking transport when the request count
	// for a rule is anomalously high.
	ErrAnomalous = errors.New("swc: anomalous request rate")
)

// TooFarInPastError provides details about a rejected increment.
type TooFarInPastError struct {
	At                int64
	Now               int64
	ObservationPeriod int64
}

func (e *TooFarInPastError) Error() string {
	return fmt.Sprintf("swc: the time provided (%d) is too far in the past (current time: %d, observation period: %d)",
		e.At, e.Now, e.ObservationPeriod)
}

func (e *TooFarInPastError) Unwrap() error {
	return ErrTooFarInPast
}

// AnomalyError reports which rule tripped the anomaly guard and why.
type AnomalyError struct {
	Rule   Rule
	Result *AnomalyResult
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("swc: anomalous request rate for %s (latest %.2f, high %.0f, %.2f hops)",
		e.Rule.Name, e.Result.Latest(), e.Result.High(), e.Result.Hops())
}

func (e *AnomalyError) Unwrap() error {
	return ErrAnomalous
}

func rangeError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidRange}, args...)...)
}

// Package delay parses the "delay" query parameter and suspends a single
// request for the requested number of seconds.
package delay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxSeconds is the longest delay a caller may request.
const MaxSeconds = 60

var (
	// ErrInvalid is returned when the delay is not an integer.
	ErrInvalid = errors.New("invalid delay")
	// ErrTooLong is returned when the delay exceeds MaxSeconds.
	ErrTooLong = errors.New("too long delay")
)

// Error carries the rejected raw value alongside its sentinel.
type Error struct {
	Kind  error
	Value string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrTooLong:
		return "Too long delay " + e.Value
	default:
		return "Invalid delay " + strconv.Quote(e.Value)
	}
}

func (e *Error) Unwrap() error { return e.Kind }

// Description returns the query parameter description for the help endpoint
func Description() string {
	return fmt.Sprintf("                    ?delay={seconds} waits before responding (max %d)", MaxSeconds)
}

// Parse converts a raw delay parameter into a duration.
//
// Blank input means no delay. Zero and negative values are accepted and
// yield no delay. Values above MaxSeconds are rejected with ErrTooLong,
// anything that is not a base-10 integer with ErrInvalid.
func Parse(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	seconds, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Out-of-range integers are still integers: report them as too long
		// (or as no-op when hugely negative) rather than as malformed.
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			if strings.HasPrefix(s, "-") {
				return 0, nil
			}
			return 0, &Error{Kind: ErrTooLong, Value: s}
		}
		return 0, &Error{Kind: ErrInvalid, Value: s}
	}

	if seconds > MaxSeconds {
		return 0, &Error{Kind: ErrTooLong, Value: s}
	}
	if seconds <= 0 {
		return 0, nil
	}
	return time.Duration(seconds) * time.Second, nil
}

// Wait blocks the calling goroutine for d, or until ctx is done.
// It returns ctx.Err() when the wait was cut short.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package echo

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"jsonecho_server/delay"
	"jsonecho_server/metrics"

	"github.com/bytedance/sonic"
)

// jsonAPI keeps number literals as written and sorts object keys, so the
// re-encoded output is deterministic and 1.0 does not become 1.
var jsonAPI = sonic.Config{
	UseNumber:   true,
	SortMapKeys: true,
	CopyString:  true,
}.Froze()

var (
	// ErrInvalidJSON is matched by every error caused by malformed input.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrCancelled is returned when the request went away during its delay.
	ErrCancelled = errors.New("request cancelled")
)

// SyntaxError carries the parser's description of malformed input.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	if e.Err == nil {
		return "invalid JSON: empty input"
	}
	return e.Err.Error()
}

func (e *SyntaxError) Is(target error) bool { return target == ErrInvalidJSON }

func (e *SyntaxError) Unwrap() error { return e.Err }

// Normalize parses raw as a single JSON value of any kind and returns its
// canonical encoding. Absent or blank input is a syntax error.
func Normalize(raw []byte) ([]byte, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &SyntaxError{}
	}

	var value interface{}
	if err := jsonAPI.Unmarshal(raw, &value); err != nil {
		return nil, &SyntaxError{Err: err}
	}

	out, err := jsonAPI.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("re-encode JSON: %w", err)
	}
	return out, nil
}

// Echo validates raw, then holds the caller for the delay named by
// delayParam before returning the canonical JSON.
//
// Input is validated before delayParam is looked at. A delay above
// delay.MaxSeconds is rejected without waiting.
func Echo(ctx context.Context, raw []byte, delayParam string) ([]byte, error) {
	out, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	d, err := delay.Parse(delayParam)
	if err != nil {
		return nil, err
	}

	if err := delay.Wait(ctx, d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	metrics.ObserveDelay(d)

	return out, nil
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidJSON) ||
		errors.Is(err, delay.ErrInvalid) ||
		errors.Is(err, delay.ErrTooLong)
}

// Outcome names err for the results metric.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidJSON):
		return "invalid_json"
	case errors.Is(err, delay.ErrInvalid), errors.Is(err, delay.ErrTooLong):
		return "invalid_delay"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	default:
		return "error"
	}
}

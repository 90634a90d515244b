package directory

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNetwork marks transport level failures talking to the directory API.
	ErrNetwork = errors.New("directory: network failure")
	// ErrMalformedResponse marks bodies that do not have the expected JSON shape.
	ErrMalformedResponse = errors.New("directory: malformed response")
	// ErrSubmitInFlight is returned when a submission is already outstanding.
	ErrSubmitInFlight = errors.New("directory: submission already in progress")
	// ErrDecisionInProgress is returned when the same listing is already being decided.
	ErrDecisionInProgress = errors.New("directory: decision already in progress")
	// ErrUnknownField is returned by SetField for names outside the record.
	ErrUnknownField = errors.New("directory: unknown field")
	// ErrMissingID is returned for operations that need a persisted listing.
	ErrMissingID = errors.New("directory: listing identifier required")
)

// StatusError is a non-2xx answer from the directory API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	text := strings.TrimSpace(e.Body)
	if text == "" {
		text = http.StatusText(e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, text)
}

// FetchError wraps a failed listing load.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return "load businesses: " + Message(e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// SubmitError wraps a failed create or update.
type SubmitError struct {
	Op  string
	Err error
}

func (e *SubmitError) Error() string { return e.Op + " business: " + Message(e.Err) }

func (e *SubmitError) Unwrap() error { return e.Err }

// DecisionError wraps a failed approve/reject call.
type DecisionError struct {
	ID      string
	Approve bool
	Err     error
}

func (e *DecisionError) Error() string {
	return "update approval status: " + Message(e.Err)
}

func (e *DecisionError) Unwrap() error { return e.Err }

// Message renders an error as text suitable for an operator banner.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var status *StatusError
	switch {
	case errors.As(err, &status):
		return status.Error()
	case errors.Is(err, ErrNetwork):
		return "unable to reach the directory service"
	case errors.Is(err, ErrMalformedResponse):
		return "invalid data format received from server"
	}
	return err.Error()
}

// IsNetwork reports whether err came from the transport layer.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

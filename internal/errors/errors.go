package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jdholdren/flock/api"
	"github.com/jdholdren/flock/internal/flock"
)

// Error is an error that knows which HTTP status it should be served with.
type Error struct {
	Status  int
	Err     error // The error this wraps
	Details []Detail
}

type Detail = api.ErrorDetail

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s, details: %v", e.Status, e.Err, e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(api.Error{
		Message: e.Err.Error(),
		Details: e.Details,
		Status:  e.Status,
	})
}

func (e *Error) UnmarshalJSON(byts []byte) error {
	t := api.Error{}
	if err := json.Unmarshal(byts, &t); err != nil {
		return err
	}

	e.Err = errors.New(t.Message)
	e.Details = t.Details
	e.Status = t.Status
	return nil
}

// E builds an *Error out of whatever it is handed: a string or error becomes
// the message, an int the status, and Details are collected. The status
// defaults to 500.
func E(args ...any) *Error {
	ret := &Error{
		Status:  http.StatusInternalServerError,
		Err:     nil,
		Details: nil,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case int:
			ret.Status = arg
		case Detail:
			ret.Details = append(ret.Details, arg)
		case []Detail:
			ret.Details = append(ret.Details, arg...)
		}
	}

	return ret
}

// FromDomain turns any error into one that can be served. Errors that are
// already an *Error pass through; domain sentinels get their status; anything
// else is hidden behind a generic 500.
func FromDomain(err error) *Error {
	if sErr := (&Error{}); errors.As(err, &sErr) {
		return sErr
	}

	switch {
	case errors.Is(err, flock.ErrValidation):
		return E(err, http.StatusBadRequest)
	case errors.Is(err, flock.ErrNotFound):
		return E(err, http.StatusNotFound)
	case errors.Is(err, flock.ErrConflict):
		return E(err, http.StatusConflict)
	}

	return E("internal server error", http.StatusInternalServerError)
}

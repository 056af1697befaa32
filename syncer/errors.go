package syncer

import (
	"errors"
	"fmt"
)

// ErrorKind classifies remote failures so callers never have to inspect
// backend-specific error shapes at each call site.
type ErrorKind int

const (
	// KindTransport covers network failures and backend rejections.
	KindTransport ErrorKind = iota
	// KindAuthorization covers authentication/permission failures.
	KindAuthorization
	// KindNotFound means the addressed row does not exist remotely.
	KindNotFound
	// KindZeroRowsAffected means the write succeeded at the transport level
	// but touched no rows, typically due to access-control rules.
	KindZeroRowsAffected
)

// String returns a human-readable representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindZeroRowsAffected:
		return "zero_rows_affected"
	default:
		return "unknown"
	}
}

// Replay steps, named so a failure always reports which logical step broke.
const (
	StepNumbering     = "numbering"
	StepHeaderWrite   = "header write"
	StepItemInsert    = "item insert"
	StepPaymentDelete = "payment delete"
	StepItemDelete    = "item delete"
	StepHeaderDelete  = "header delete"
)

// RemoteError is a classified failure from the remote store. Step is filled
// in by the applier; implementations of RemoteStore set only Kind and Err.
type RemoteError struct {
	Step string
	Kind ErrorKind
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("remote %s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failed (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// NewRemoteError builds a step-less RemoteError for RemoteStore
// implementations.
func NewRemoteError(kind ErrorKind, err error) *RemoteError {
	return &RemoteError{Kind: kind, Err: err}
}

// failStep tags err with the replay step it belongs to, preserving an
// existing classification when err is already a RemoteError.
func failStep(step string, err error) *RemoteError {
	var re *RemoteError
	if errors.As(err, &re) {
		return &RemoteError{Step: step, Kind: re.Kind, Err: re.Err}
	}
	return &RemoteError{Step: step, Kind: KindTransport, Err: err}
}

// KindOf extracts the classification from err, defaulting to transport.
func KindOf(err error) ErrorKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindTransport
}

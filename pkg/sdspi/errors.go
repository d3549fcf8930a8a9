package sdspi

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates that a bounded poll exhausted its budget.
	ErrTimeout = errors.New("sdspi: timeout")

	// ErrUnexpectedResponse indicates a valid R1 token inconsistent with the expected state.
	ErrUnexpectedResponse = errors.New("sdspi: unexpected response")

	// ErrPatternMismatch indicates that CMD8 did not echo the voltage and check pattern.
	ErrPatternMismatch = errors.New("sdspi: interface condition echo mismatch")

	// ErrNoDataToken indicates that the start block token was never received.
	ErrNoDataToken = errors.New("sdspi: no start block token")

	// ErrNotInitialized is returned by register reads before a successful Init.
	ErrNotInitialized = errors.New("sdspi: card not initialized")

	// ErrDataCRC indicates a data block whose CRC16 does not match its payload.
	ErrDataCRC = errors.New("sdspi: data block CRC mismatch")

	errShortExchange = errors.New("sdspi: transport returned fewer bytes than written")
)

// CommandError reports a command whose response was not the expected one.
// It unwraps to ErrTimeout when the card never answered, ErrUnexpectedResponse otherwise.
type CommandError struct {
	Command  Command
	Response R1
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: response %s", e.Command, e.Response.Verbose())
}

func (e *CommandError) Unwrap() error {
	if !e.Response.Valid() {
		return ErrTimeout
	}
	return ErrUnexpectedResponse
}

// FailureKind classifies why a bring-up attempt failed.
type FailureKind uint8

const (
	FailureTransport FailureKind = iota
	FailureTimeout
	FailureUnexpectedResponse
	FailurePatternMismatch
)

func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureUnexpectedResponse:
		return "unexpected response"
	case FailurePatternMismatch:
		return "unknown state"
	default:
		return "transport"
	}
}

// InitError is returned by Init when bring-up aborts.
type InitError struct {
	Step string
	Kind FailureKind
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("sdspi: init failed at %s (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// fail wraps err into an InitError for step, deriving the failure kind.
func fail(step string, err error) *InitError {
	kind := FailureTransport
	switch {
	case errors.Is(err, ErrPatternMismatch):
		kind = FailurePatternMismatch
	case errors.Is(err, ErrTimeout):
		kind = FailureTimeout
	case errors.Is(err, ErrUnexpectedResponse):
		kind = FailureUnexpectedResponse
	}
	return &InitError{Step: step, Kind: kind, Err: err}
}

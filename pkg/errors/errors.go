// Unified error handling for the TMC tools
//
// Copyright (C) 2026  TMC Tools Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"fmt"
	"runtime"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Waveform encoding errors
	ErrWaveShape        ErrorCode = "WAVE_SHAPE"
	ErrWaveEncoding     ErrorCode = "WAVE_ENCODING"
	ErrTableConsistency ErrorCode = "TABLE_CONSISTENCY"

	// TMCL transport errors
	ErrTMCLFrame    ErrorCode = "TMCL_FRAME"
	ErrTMCLChecksum ErrorCode = "TMCL_CHECKSUM"
	ErrTMCLStatus   ErrorCode = "TMCL_STATUS"

	// Device communication errors
	ErrDevice ErrorCode = "DEVICE"

	// Runtime errors
	ErrRuntime ErrorCode = "RUNTIME"
)

// ToolError is the unified error type for the tool suite
type ToolError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Op is the operation that failed (if available)
	Op string

	// Register is the register name involved (if applicable)
	Register string

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *ToolError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Op, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ToolError) Unwrap() error {
	return e.Err
}

// SetOp sets the failing operation
func (e *ToolError) SetOp(op string) *ToolError {
	e.Op = op
	return e
}

// SetRegister sets the register name
func (e *ToolError) SetRegister(register string) *ToolError {
	e.Register = register
	return e
}

// SetContext adds additional context
func (e *ToolError) SetContext(key string, value interface{}) *ToolError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *ToolError {
	return &ToolError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New creates a new ToolError
func New(code ErrorCode, message string) *ToolError {
	return &ToolError{
		Code:    code,
		Message: message,
	}
}

// Waveform errors

// ShapeError creates an error for a malformed input waveform
func ShapeError(format string, args ...interface{}) *ToolError {
	return New(ErrWaveShape, fmt.Sprintf(format, args...))
}

// EncodingError creates an error for a waveform the table format cannot hold
func EncodingError(format string, args ...interface{}) *ToolError {
	return New(ErrWaveEncoding, fmt.Sprintf(format, args...))
}

// InternalConsistencyError creates an error for a failed post-encode verification
func InternalConsistencyError(format string, args ...interface{}) *ToolError {
	return New(ErrTableConsistency, fmt.Sprintf(format, args...))
}

// TMCL errors

// TMCLFrameError creates an error for a malformed TMCL datagram
func TMCLFrameError(reason string) *ToolError {
	return New(ErrTMCLFrame, fmt.Sprintf("bad TMCL datagram: %s", reason))
}

// TMCLChecksumError creates an error for a datagram checksum mismatch
func TMCLChecksumError(want, got byte) *ToolError {
	return New(ErrTMCLChecksum, fmt.Sprintf("checksum mismatch: want %02x, got %02x", want, got))
}

// TMCLStatusError creates an error for a non-OK reply status
func TMCLStatusError(command, status byte, description string) *ToolError {
	return New(ErrTMCLStatus, fmt.Sprintf("command %d rejected: %s (status %d)", command, description, status))
}

// Device errors

// DeviceError creates an error for device communication failure
func DeviceError(operation string, reason string) *ToolError {
	return New(ErrDevice, fmt.Sprintf("device %s failed: %s", operation, reason)).
		SetOp(operation)
}

// Runtime errors

// RuntimeError creates a general runtime error
func RuntimeError(message string) *ToolError {
	return New(ErrRuntime, message)
}

// RecoverPanic safely recovers from panic and converts to error
func RecoverPanic() *ToolError {
	if r := recover(); r != nil {
		var err error
		switch x := r.(type) {
		case string:
			err = RuntimeError(fmt.Sprintf("panic: %s", x))
		case error:
			err = RuntimeError(x.Error())
		case runtime.Error:
			err = RuntimeError(x.Error())
		default:
			err = RuntimeError(fmt.Sprintf("panic: %v", x))
		}
		return err.(*ToolError)
	}
	return nil
}

// Is checks if error matches given error code
func Is(err error, code ErrorCode) bool {
	if toolErr, ok := err.(*ToolError); ok {
		return toolErr.Code == code
	}
	return false
}

// IsWave checks if error is a waveform validation or encoding error
func IsWave(err error) bool {
	return Is(err, ErrWaveShape) ||
		Is(err, ErrWaveEncoding) ||
		Is(err, ErrTableConsistency)
}

// IsTMCL checks if error is a TMCL transport error
func IsTMCL(err error) bool {
	return Is(err, ErrTMCLFrame) ||
		Is(err, ErrTMCLChecksum) ||
		Is(err, ErrTMCLStatus)
}

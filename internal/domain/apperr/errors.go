// Package apperr holds the gallery's error taxonomy. None of these errors is
// fatal: each one means the operation did not take effect and the previous
// state is preserved.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange    = errors.New("image index out of range")
	ErrStaleAsset         = errors.New("image changed while the operation was in flight")
	ErrPayloadUnavailable = errors.New("image payload is not available")
)

// AdmissionKind classifies why a candidate batch was (partly) refused.
type AdmissionKind int

const (
	AdmissionFormat AdmissionKind = iota
	AdmissionCapacity
)

func (k AdmissionKind) String() string {
	switch k {
	case AdmissionFormat:
		return "format"
	case AdmissionCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// AdmissionError is a user-facing refusal: format/size or capacity.
type AdmissionError struct {
	Kind    AdmissionKind
	Message string
}

func (e *AdmissionError) Error() string {
	return e.Message
}

// TransformStage is the rotation pipeline step that failed.
type TransformStage string

const (
	StageDecode      TransformStage = "decode"
	StageTransform   TransformStage = "transform"
	StageEncode      TransformStage = "encode"
	StageUnavailable TransformStage = "unavailable"
)

// TransformError wraps a decode/encode failure during rotation or preview.
type TransformError struct {
	Stage TransformStage
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("image %s failed: %v", e.Stage, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// PersistenceOp names the durable-slot operation that failed.
type PersistenceOp string

const (
	OpLoad PersistenceOp = "load"
	OpSave PersistenceOp = "save"
)

// PersistenceError wraps a durable read/write failure.
type PersistenceError struct {
	Op  PersistenceOp
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("snapshot %s %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsAdmission reports whether err is an AdmissionError of any kind.
func IsAdmission(err error) bool {
	var target *AdmissionError
	return errors.As(err, &target)
}

// IsTransform reports whether err is a TransformError.
func IsTransform(err error) bool {
	var target *TransformError
	return errors.As(err, &target)
}

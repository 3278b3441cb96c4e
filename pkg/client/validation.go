package client

import (
	"reflect"
)

// ValidationResult is the outcome of a validation job. It is implemented
// only by Valid, Invalid and VirusDetected.
type ValidationResult[T any] interface {
	validationResult(T)
}

type Valid[T any] struct {
	Value T
}

type Invalid[T any] struct {
	Message string
}

type VirusDetected[T any] struct {
	Message string
}

func (Valid[T]) validationResult(T)         {}
func (Invalid[T]) validationResult(T)       {}
func (VirusDetected[T]) validationResult(T) {}

// unknownResult carries a tag this client does not understand.
type unknownResult[T any] struct {
	Type string
}

func (unknownResult[T]) validationResult(T) {}

const (
	validationOK            = "ok"
	validationError         = "error"
	validationVirusDetected = "virus_detected"
)

func newValidationResult[T any](kind, message string, value T) ValidationResult[T] {
	switch kind {
	case validationOK:
		if reflect.ValueOf(&value).Elem().IsZero() {
			return Invalid[T]{Message: "missing validated handle"}
		}

		return Valid[T]{Value: value}

	case validationError:
		return Invalid[T]{Message: message}

	case validationVirusDetected:
		return VirusDetected[T]{Message: message}
	}

	return unknownResult[T]{Type: kind}
}

// Unwrap returns the validated value or the failure the result carries.
func Unwrap[T any](result ValidationResult[T]) (T, error) {
	var zero T

	switch r := result.(type) {
	case Valid[T]:
		return r.Value, nil

	case Invalid[T]:
		return zero, &ValidationError{Message: r.Message}

	case VirusDetected[T]:
		return zero, &ThreatDetectedError{Message: r.Message}
	}

	return zero, &ValidationError{Message: "unknown validation response type"}
}

package model

import (
	"errors"
	"fmt"
)

// ConfigurationError is raised while planning a run: unknown keywords,
// unsatisfiable requirements, colliding inputs, inconsistent registries.
// No producer has executed when one is returned.
type ConfigurationError struct {
	Message string
	Keyword Keyword
	Cause   error
}

// NewConfigurationError builds a ConfigurationError with a formatted message.
func NewConfigurationError(kw Keyword, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...), Keyword: kw}
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error: " + e.Message
	if e.Keyword != "" {
		msg += fmt.Sprintf(" (keyword %q)", e.Keyword)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// DataError is raised by a producer that finds required data missing or
// malformed at run time.
type DataError struct {
	Message  string
	Keyword  Keyword
	Producer string
	Cause    error
}

// NewDataError builds a DataError with a formatted message.
func NewDataError(kw Keyword, format string, args ...any) *DataError {
	return &DataError{Message: fmt.Sprintf(format, args...), Keyword: kw}
}

// WithProducer records which producer reported the error.
func (e *DataError) WithProducer(name string) *DataError {
	e.Producer = name
	return e
}

// WithCause attaches an underlying error.
func (e *DataError) WithCause(err error) *DataError {
	e.Cause = err
	return e
}

func (e *DataError) Error() string {
	msg := "data error"
	if e.Producer != "" {
		msg += " in " + e.Producer
	}
	msg += ": " + e.Message
	if e.Keyword != "" {
		msg += fmt.Sprintf(" (keyword %q)", e.Keyword)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DataError) Unwrap() error {
	return e.Cause
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsDataError reports whether err wraps a DataError.
func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

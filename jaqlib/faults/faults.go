// Package faults defines the error taxonomy shared by every jaqlib package.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrConfiguration   = errors.New("jaqlib: configuration error")
	ErrMapping         = errors.New("jaqlib: mapping error")
	ErrDataSourceQuery = errors.New("jaqlib: data source query error")
	ErrConversion      = errors.New("jaqlib: conversion error")
	ErrQueryResult     = errors.New("jaqlib: query result error")
)

// ConfigurationError reports an invalid setup discoverable without touching data.
type ConfigurationError struct {
	Op      string // builder or constructor that rejected the setup
	Subject string // type, operator or argument name
	Err     error
}

func (e *ConfigurationError) Error() string {
	return join("configuration", e.Op, e.Subject, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a ConfigurationError with a formatted cause.
func NewConfigurationError(op, subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Op: op, Subject: subject, Err: fmt.Errorf(format, args...)}
}

// MappingError reports a structural mismatch between a mapping tree and a record.
type MappingError struct {
	Field string
	Type  string
	Err   error
}

func (e *MappingError) Error() string {
	subject := e.Field
	if e.Type != "" {
		if subject != "" {
			subject = e.Type + "." + subject
		} else {
			subject = e.Type
		}
	}
	return join("mapping", "", subject, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

func (e *MappingError) Is(target error) bool {
	return target == ErrMapping
}

// NewMappingError creates a MappingError with a formatted cause.
func NewMappingError(typ, field, format string, args ...any) *MappingError {
	return &MappingError{Type: typ, Field: field, Err: fmt.Errorf(format, args...)}
}

// DataSourceQueryError reports a backend read failure or a strict-mode missing field.
// Position identifies the cursor position (row, element path) at the time of failure.
type DataSourceQueryError struct {
	Field    string
	Position string
	Err      error
}

func (e *DataSourceQueryError) Error() string {
	var b strings.Builder
	b.WriteString("data source query")
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	if e.Position != "" {
		fmt.Fprintf(&b, " at %s", e.Position)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DataSourceQueryError) Unwrap() error {
	return e.Err
}

func (e *DataSourceQueryError) Is(target error) bool {
	return target == ErrDataSourceQuery
}

// ErrFieldMissing is the cause of a DataSourceQueryError raised under the strict policy.
var ErrFieldMissing = errors.New("field does not exist")

// ConversionError reports a converter that could not produce the expected type.
type ConversionError struct {
	Value    any
	Actual   string
	Expected string
	Err      error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("conversion: cannot convert %s value %v to %s", e.Actual, e.Value, e.Expected)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// NewConversionError builds a ConversionError naming the value's and the expected type.
func NewConversionError(value any, expected string, cause error) *ConversionError {
	return &ConversionError{
		Value:    value,
		Actual:   fmt.Sprintf("%T", value),
		Expected: expected,
		Err:      cause,
	}
}

// QueryResultError reports a violated result-shape contract.
type QueryResultError struct {
	Shape string
	Count int
}

func (e *QueryResultError) Error() string {
	return fmt.Sprintf("query result: %s expected at most one match, found %d", e.Shape, e.Count)
}

func (e *QueryResultError) Is(target error) bool {
	return target == ErrQueryResult
}

func join(kind, op, subject string, err error) string {
	var b strings.Builder
	b.WriteString(kind)
	if op != "" {
		b.WriteString(" ")
		b.WriteString(op)
	}
	if subject != "" {
		fmt.Fprintf(&b, " [%s]", subject)
	}
	if err != nil {
		b.WriteString(": ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrScheduleSkip marks an automated trigger that arrived outside the source's
// schedule. It is a normal outcome, not a failure.
var ErrScheduleSkip = errors.New("sync not due")

// ErrDuplicateKey is returned by stores when an insert hits the uniqueness
// constraint on the record key (a concurrent attempt inserted it first).
var ErrDuplicateKey = errors.New("duplicate uniqueness key")

// ErrUnknownSource is returned when a request names a source that is not registered.
var ErrUnknownSource = errors.New("unknown source")

// ProviderError reports an upstream call that did not return a success status.
// Status is 0 when no HTTP response was received (network failure, timeout).
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: request failed: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
}

// FormatError reports an upstream payload that is missing an expected field.
type FormatError struct {
	Provider string
	Field    string
	Reason   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: malformed payload: field %q %s", e.Provider, e.Field, e.Reason)
}

// ExhaustedCredentialsError is returned after every key in a credential pool
// failed. Errs holds one error per attempted key, in pool order.
type ExhaustedCredentialsError struct {
	Provider string
	Attempts int
	Errs     []error
}

func (e *ExhaustedCredentialsError) Error() string {
	if len(e.Errs) == 0 {
		return fmt.Sprintf("%s: no credentials configured", e.Provider)
	}
	return fmt.Sprintf("%s: all %d credentials failed, last: %v", e.Provider, e.Attempts, e.Errs[len(e.Errs)-1])
}

// Unwrap exposes every per-key error to errors.Is and errors.As.
func (e *ExhaustedCredentialsError) Unwrap() []error {
	return e.Errs
}

// StorageError reports a failed store call.
type StorageError struct {
	Op         string
	Collection Collection
	Key        string
	Err        error
}

func (e *StorageError) Error() string {
	var b strings.Builder
	b.WriteString("storage ")
	b.WriteString(e.Op)
	if e.Collection != "" {
		b.WriteString(" ")
		b.WriteString(string(e.Collection))
	}
	if e.Key != "" {
		b.WriteString(" key=")
		b.WriteString(e.Key)
	}
	b.WriteString(": ")
	b.WriteString(fmt.Sprint(e.Err))
	return b.String()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// HistoryRecordError reports a failed run-history write. It is logged and
// counted, never returned to callers of the orchestrator.
type HistoryRecordError struct {
	SourceID string
	Err      error
}

func (e *HistoryRecordError) Error() string {
	return fmt.Sprintf("record history for %s: %v", e.SourceID, e.Err)
}

func (e *HistoryRecordError) Unwrap() error {
	return e.Err
}

// ErrorKind is the closed classification of orchestrator errors, used for
// metric labels and response error strings.
type ErrorKind string

const (
	KindNone                 ErrorKind = ""
	KindScheduleSkip         ErrorKind = "schedule_skip"
	KindProvider             ErrorKind = "provider_error"
	KindFormat               ErrorKind = "format_error"
	KindExhaustedCredentials ErrorKind = "exhausted_credentials"
	KindStorage              ErrorKind = "storage_error"
	KindHistory              ErrorKind = "history_record_error"
	KindUnknownSource        ErrorKind = "unknown_source"
	KindCanceled             ErrorKind = "canceled"
	KindInternal             ErrorKind = "internal_error"
)

// ClassifyError maps err onto the closed taxonomy. Credential exhaustion is
// checked before provider errors because it wraps them.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var (
		exhausted *ExhaustedCredentialsError
		format    *FormatError
		provider  *ProviderError
		storage   *StorageError
		history   *HistoryRecordError
	)

	switch {
	case errors.Is(err, ErrScheduleSkip):
		return KindScheduleSkip
	case errors.Is(err, ErrUnknownSource):
		return KindUnknownSource
	case errors.As(err, &exhausted):
		return KindExhaustedCredentials
	case errors.As(err, &format):
		return KindFormat
	case errors.As(err, &provider):
		return KindProvider
	case errors.As(err, &history):
		return KindHistory
	case errors.As(err, &storage):
		return KindStorage
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}

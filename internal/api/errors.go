// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package api

import "errors"

var (
	// ErrSourceMismatch indicates a body sourceId that contradicts the path.
	ErrSourceMismatch = errors.New("sourceId in body does not match path")

	// ErrRequestTooLarge indicates a trigger body over maxRequestBodyBytes.
	ErrRequestTooLarge = errors.New("request body too large")
)

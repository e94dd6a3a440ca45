// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

// Package validation provides struct validation using go-playground/validator v10.
//
// A thread-safe singleton validator is configured once with:
//   - JSON tag names in error fields (sourceId, not SourceID)
//   - "collection": the value names a content collection
//   - "order_field": the value is a retention/listing order field
//   - "iana_tz": the value is a loadable IANA timezone
//
// Errors translate to the VALIDATION_ERROR shape of models.APIError:
//
//	var req models.SyncRequest
//	if err := validation.ValidateStruct(&req); err != nil {
//	    apiErr := err.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation

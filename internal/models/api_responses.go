// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package models

import (
	"fmt"
	"strconv"
	"time"
)

// APIResponse is the envelope used by the read endpoints (history, content,
// schedule preview, health). Sync triggers use the flat SyncResponse shape
// that external schedulers expect instead.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": [{"source_id": "news", "outcome": "success", ...}],
//	  "metadata": {"timestamp": "2026-03-05T14:00:00Z", "query_time_ms": 3}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Count       int       `json:"count,omitempty"`
}

// APIError carries a machine-readable code plus a human-readable message.
//
// Common codes: VALIDATION_ERROR, NOT_FOUND, UNAUTHORIZED, DATABASE_ERROR,
// RATE_LIMIT_EXCEEDED.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SyncRequest is the invocation contract of a sync trigger. Params is an
// arbitrary JSON object; values must be scalars (string, number, boolean).
type SyncRequest struct {
	Automated bool           `json:"automated"`
	SourceID  string         `json:"sourceId" validate:"omitempty,min=1,max=64,alphanum"`
	Params    map[string]any `json:"params,omitempty" validate:"omitempty,max=16,dive,keys,min=1,max=64,endkeys,param_value"`
}

// StringParams renders the scalar params as adapter parameters. Numbers keep
// their shortest form, so {"max": 5} becomes "5". It returns nil without params.
func (r SyncRequest) StringParams() map[string]string {
	if len(r.Params) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Params))
	for k, v := range r.Params {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case float32:
			out[k] = strconv.FormatFloat(float64(val), 'f', -1, 32)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

// SyncResult carries the record counts of a completed fetch.
type SyncResult struct {
	RecordsFetched  int   `json:"recordsFetched"`
	RecordsInserted int   `json:"recordsInserted"`
	RecordsSkipped  int   `json:"recordsSkipped"`
	RecordsDropped  int   `json:"recordsDropped,omitempty"`
	RecordsDeleted  int64 `json:"recordsDeleted,omitempty"`
}

// SyncResponse is the response of a sync trigger. It is returned with HTTP 200
// for skipped, successful and failed syncs alike. A skip reports success=true;
// success=false carries error.
type SyncResponse struct {
	Success    bool        `json:"success"`
	SourceID   string      `json:"sourceId,omitempty"`
	Skipped    bool        `json:"skipped,omitempty"`
	Message    string      `json:"message"`
	NextSync   *time.Time  `json:"nextSync,omitempty"`
	SyncResult *SyncResult `json:"syncResult,omitempty"`
	Error      string      `json:"error,omitempty"`
}

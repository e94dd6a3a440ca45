// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package logging

import (
	"net/url"
	"strings"
)

// credentialParams are query parameters that carry provider credentials.
var credentialParams = map[string]bool{
	"key":     true,
	"apikey":  true,
	"api_key": true,
	"token":   true,
}

// RedactKey masks a credential, keeping only its last 4 characters.
// Example: "AIzaSyD-abcdefgh1234" -> "***1234"
func RedactKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return "***" + key[len(key)-4:]
}

// RedactURL masks credential query parameters in a provider URL so request
// URLs can be logged. Unparseable input is returned as a fixed placeholder.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	changed := false
	for name, values := range q {
		if !credentialParams[strings.ToLower(name)] {
			continue
		}
		for i := range values {
			values[i] = RedactKey(values[i])
		}
		q[name] = values
		changed = true
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Truncate shortens s to maxLen bytes, appending "..." when cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

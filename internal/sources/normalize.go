// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sources

import (
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// timeLayouts are tried in order by parseTime.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime parses the timestamp formats seen across providers. It returns the
// zero time when s is empty or unparseable.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// canonicalURL returns the form of raw used as a uniqueness key: scheme and
// host lower-cased, fragment and utm_* tracking parameters removed, remaining
// query sorted, trailing slash trimmed. Non-http(s) or host-less URLs yield "".
func canonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for k := range q {
		if strings.HasPrefix(strings.ToLower(k), "utm_") {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = strings.TrimRight(u.RawPath, "/")
	return u.String()
}

// firstString returns the first non-empty string among the gjson paths.
func firstString(v gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := strings.TrimSpace(v.Get(p).String()); s != "" {
			return s
		}
	}
	return ""
}

// firstInt returns the first positive integer among the gjson paths. Numeric
// strings such as "7" are accepted.
func firstInt(v gjson.Result, paths ...string) int64 {
	for _, p := range paths {
		r := v.Get(p)
		if !r.Exists() {
			continue
		}
		if n := r.Int(); n > 0 {
			return n
		}
	}
	return 0
}

// requireArray returns the array at path or a FormatError naming the field.
func requireArray(provider string, body []byte, path string) ([]gjson.Result, error) {
	var v gjson.Result
	if path == "" {
		v = gjson.ParseBytes(body)
	} else {
		v = gjson.GetBytes(body, path)
	}
	if !v.Exists() {
		return nil, formatError(provider, path, "is missing")
	}
	if !v.IsArray() {
		return nil, formatError(provider, path, "is not an array")
	}
	return v.Array(), nil
}

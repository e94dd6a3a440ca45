// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package config

import (
	"strconv"
	"strings"
)

// maxNumberedKeys caps numbered-key discovery.
const maxNumberedKeys = 32

// DiscoverNumberedKeys builds an ordered credential pool from an explicit list
// plus numbered environment variables PREFIX, PREFIX_2, PREFIX_3, ...
//
// Discovery stops at the first gap (PREFIX_4 missing ends the scan even if
// PREFIX_5 exists); PREFIX itself being unset does not stop the scan. The
// explicit keys come first, blanks are dropped, and duplicates keep their
// first position.
func DiscoverNumberedKeys(prefix string, explicit []string, lookup func(string) (string, bool)) []string {
	keys := make([]string, 0, len(explicit)+4)
	seen := make(map[string]bool, len(explicit)+4)

	add := func(k string) {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		keys = append(keys, k)
	}

	for _, k := range explicit {
		add(k)
	}

	if lookup == nil {
		return keys
	}

	if v, ok := lookup(prefix); ok {
		add(v)
	}
	for i := 2; i <= maxNumberedKeys; i++ {
		v, ok := lookup(prefix + "_" + strconv.Itoa(i))
		if !ok {
			break
		}
		add(v)
	}

	return keys
}

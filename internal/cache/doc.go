// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

/*
Package cache provides a thread-safe in-memory TTL cache for API read responses.

The content and history endpoints are polled by the site's pages far more
often than the collections change; collections only change when a sync
attempt runs. The API handler therefore serves those reads from this cache
and clears it whenever a sync trigger completes.

# Usage

	c := cache.New(30 * time.Second)
	defer c.Close()

	key := cache.GenerateKey("content", query)
	if page, ok := c.Get(key); ok {
	    return page.(ContentPage)
	}
	page := loadFromStore()
	c.Set(key, page)

	// after a sync attempt
	c.Clear()

# Expiration

Entries expire lazily on Get and are swept periodically by a background
goroutine, stopped by Close. Stats reports hits, misses and evictions.

# Scope

The cache never sits in front of the dedup check: whether a uniqueness key
exists is always answered by the store, because retention deletes keys that
a cached answer would still report as present.
*/
package cache

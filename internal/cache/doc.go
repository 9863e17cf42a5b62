// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

/*
Package cache provides a generic, bounded, thread-safe LRU cache with TTL.

The tracker keeps each user's open journey here so consecutive touchpoints
from the same user skip the database read. The database stays the system
of record: a conversion invalidates the entry, and expired entries are
reloaded on the next access.

# Usage

	journeys := cache.NewLRU[string, attribution.Journey](10000, 5*time.Minute)
	journeys.Add(userID, journey)
	if j, ok := journeys.Get(userID); ok {
	    // use j
	}
	journeys.Remove(userID)

Stats reports hits, misses and evictions. Callers record hit and miss
counters in Prometheus themselves.

# Thread Safety

Every method takes the cache mutex. Get promotes the entry, so reads also
lock exclusively.
*/
package cache

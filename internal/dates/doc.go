// Package dates handles calendar-day keys and the date ranges derived from
// configured competitions.
//
// A Key is the canonical YYYYMMDD form of a day. It is used as the cache key
// for raw snapshots and parsed match sets, and it sorts in calendar order when
// compared as a string.
package dates

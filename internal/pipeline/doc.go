// Package pipeline runs the two phases of ippon over the configured
// competitions.
//
// The sync phase works out which days of the resolved range have no raw page
// yet and fetches them, one day at a time. The build phase parses every raw
// page that has no per-day match cache, then rebuilds the archive of each
// competition from the per-day caches. Both phases read their state from
// storage at the start of a run and can be rerun at any time.
package pipeline

// Package storage provides the write-once document caches of ippon.
//
// Blobs is a small key/value interface with a gzip-compressed filesystem
// implementation used in production and an in-memory implementation used in
// tests. Typed views sit on top of it: Snapshots holds the raw result pages,
// one per day and sport; DailyCache holds the matches parsed from each page;
// Archives holds the per-competition build output.
package storage

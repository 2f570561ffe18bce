// Package cache keeps base-branch coverage summaries on disk.
//
// Entries are keyed by a SHA-256 hash of the repository, the base commit SHA
// and the commands used to produce the report. Each entry stores the raw
// summary JSON with a creation timestamp and a TTL in seconds. Expired entries
// are treated as misses and removed on read.
//
// The default directory is $XDG_CACHE_HOME/covdiff (or the OS-appropriate
// equivalent).
package cache

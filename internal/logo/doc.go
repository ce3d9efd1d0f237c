// Package logo keeps a local copy of the team logos referenced by the
// competition archives. Each logo is stored once under the MD5 hex digest of
// its URL and never downloaded again.
package logo

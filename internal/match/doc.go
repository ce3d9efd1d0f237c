// Package match defines the structured results extracted from daily result
// pages: matches, team sides, goals, and the per-competition archives built
// from them.
package match

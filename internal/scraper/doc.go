// Package scraper fetches daily result pages and extracts finished matches
// from them.
//
// Client performs one HTTP GET per day against the live-results page of a
// sport, sending a browser-like header set. Extractor walks the page markup
// with goquery and applies regular expressions to goal, team, score and level
// labels. Extraction is a pure function of the page bytes: elements that do
// not have the expected shape are skipped, never reported as errors.
package scraper

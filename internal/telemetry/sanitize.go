package telemetry

import "github.com/microcosm-cc/bluemonday"

// sanitizer strips markup from free-text fields before they reach storage.
// Plugins are trusted code, but the text they emit (and the bodies a
// workflow HTTP node pulls from an upstream service) is not: without this, a
// crafted log message or alert title would be replayed verbatim into any
// dashboard that renders the read API's JSON as HTML.
var sanitizer = bluemonday.StrictPolicy()

func sanitizeText(s string) string {
	return sanitizer.Sanitize(s)
}

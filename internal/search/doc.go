// Package search composes filtered, sorted and paginated lecture queries.
//
// A [Filter] is parsed from request query parameters and compiled by a [Builder]
// into SQL conditions in a fixed order: text, topics, tags, rank. Each topic and
// tag id adds its own EXISTS condition, so a lecture must carry every selected
// topic and every selected tag to match.
//
// The [Engine] runs the compiled query and returns a [Page] of [Result] values
// with topic, tag and rank names resolved.
package search

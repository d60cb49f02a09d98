// Package services talks to the video provider that supplies lecture metadata.
//
// # Video URLs
//
// [ExtractVideoID] recognises the YouTube link shapes admins paste into the lecture form:
//
//	https://youtu.be/<id>
//	https://www.youtube.com/watch?v=<id>
//	https://m.youtube.com/watch?v=<id>
//	https://www.youtube.com/live/<id>
//
// Query fragments glued onto the id are stripped. [ShortURL] rebuilds the canonical short link.
//
// # Metadata
//
// [YouTubeService] implements [Fetcher] with a single videos.list call through the
// YouTube Data API v3 client, authenticated with an API key and bounded by a timeout.
// Nothing is retried.
//
// # Error Handling
//
//   - [shared.ErrUnresolvableURL] : no video id could be extracted
//   - [shared.ErrLookupFailed] : transport failure, non-2xx response or no matching video
//   - [shared.ErrTimeout] : the lookup exceeded its deadline (also matches ErrLookupFailed)
package services

// Package tasks implements the catalog's write operations.
//
// # Admin CRUD
//
// [LectureManager] creates and edits lectures. Creating a lecture looks up the
// video metadata through a [services.Fetcher] and then, in one transaction,
// inserts the lecture with its full topic set, tag set and rank. Editing re-fetches
// metadata only when the submitted URL points at a different video, and always
// replaces the association sets.
//
// [TaxonomyManager] creates and lists topics, tags and ranks. Duplicate names are
// reported as [shared.ErrConflict].
//
// # Bulk Data
//
// [Catalog] moves the whole catalog in and out as a [models.Snapshot]:
//
//  1. [Catalog.Export] : every lecture with its association ids, plus every topic, tag and rank
//  2. [Catalog.Import] : taxonomy reconciled by name, lectures skipped when their video id is stored
//  3. [Catalog.Reset] : snapshot, then delete everything except user accounts
//
// Each runs in a single transaction; any failure leaves the store unchanged.
//
// # Progress Reporting
//
// Import accepts an optional channel of [ProgressUpdate]. Updates are sent with
// select/default so a slow reader never blocks the transaction.
package tasks

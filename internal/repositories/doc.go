// Package repositories implements SQL persistence for the catalog's domain entities.
//
// Every repository is constructed over a [shared.Querier], so the same code runs against
// a [shared.Database] or inside a [shared.Tx]. Queries use ? placeholders and run unchanged
// on SQLite and PostgreSQL.
//
// Key Implementations:
//   - [UserRepository] : Admin accounts looked up by username
//   - [LectureRepository] : Lectures with their topic, tag and rank associations
//   - [TaxonomyRepository] : Topics, tags and ranks, one repository per [models.TaxonomyKind]
//
// Storage errors are translated at this boundary: missing rows become [shared.ErrNotFound],
// unique constraint violations become [shared.ErrConflict] and everything else wraps [shared.ErrStorage].
package repositories

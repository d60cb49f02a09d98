// Package models defines domain entities for the lecture catalog.
//
// The package contains two categories of types:
//
// 1. Persistent Entities: database-backed records
//   - [User] : Admin accounts that may sign in to the curation area
//   - [Lecture] : A video lecture with its topic set, tag set and optional rank
//   - [Term] : A topic, tag or rank, distinguished by [TaxonomyKind]
//
// 2. Data Transfer Objects: portable documents exchanged with the outside world
//   - [Snapshot] : The export/import document covering the whole catalog
//   - [VideoInfo] : Metadata returned by the video provider
//
// Persistent entities implement [Model], whose Validate method checks field constraints
// with go-playground/validator struct tags. Validation failures wrap [shared.ErrInvalidInput].
package models

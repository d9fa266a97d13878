// Package repositories implements SQLite persistence for the directory's entities.
//
// Every lookup separates "nothing matched" from "the query failed": a missing row is
// reported as a wrapped sentinel from the shared package (for example
// [shared.ErrBandNotFound]) while driver failures are wrapped with context and passed up.
// Identifiers are UUID strings assigned here at insert time.
//
// Key Implementations:
//   - [BandRepository] : band listing, slug and id lookups, owner-scoped partial updates
//   - [ProfileRepository] : profile upserts keyed by user id
//   - [UserRepository] : accounts for password and OAuth sign-in
//   - [PreviewRepository] : link preview cache with expiry
package repositories

// Package models defines the domain entities of the Michigan bands directory and the
// persistence interfaces the repositories implement.
//
// Entities:
//   - [Band] : a directory listing with region, genres, social links and owner
//   - [Profile] : a user's display profile, keyed by user id
//   - [User] : an account that can sign in and own bands
//   - [LinkPreview] : page metadata scraped from a band's website
//
// Write payloads ([BandInput], [BandPatch], [ProfileInput]) are trimmed and normalized
// before validation. Validation uses a shared go-playground validator with a custom
// "region" rule, so unknown regions are rejected when written.
package models

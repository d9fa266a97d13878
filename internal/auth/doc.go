// Package auth handles local sign-in: argon2id password hashes, HS256 session tokens
// carried in a cookie, and the request-scoped [Identity] that write endpoints check
// ownership against.
package auth

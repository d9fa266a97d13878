// Package services implements the external sign-in providers used by the web app.
//
// # Identity Providers
//
// [IdentityProvider] wraps an OAuth2 authorization code flow. The web app redirects to
// [IdentityProvider.AuthCodeURL] with a signed state, then calls [IdentityProvider.Exchange]
// with the returned code to resolve an [ExternalIdentity].
//
// [OAuthProvider] implements this for GitHub and Google. The token exchange uses [oauth2.Config]
// and the user info endpoint is decoded into provider specific structs before being mapped.
//
// # Error Handling
//
// Providers use typed errors from the shared package:
//   - [shared.ErrMissingConfig] : client credentials absent
//   - [shared.ErrAuthFailed] : code exchange or user info lookup rejected
//   - [shared.ErrServiceUnavailable] : circuit breaker open after repeated provider failures
package services

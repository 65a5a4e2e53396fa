// Package session manages the OAuth2 session lifecycle for the single
// authenticated Spotify user.
//
// # Token Store
//
// The [Manager] owns the one [oauth2.Token] for the process. The token lives
// in memory only; a new issuance or refresh replaces it wholesale.
//
// # Authorization Flow
//
// [Manager.StartLogin] issues a fresh single-use state value and returns the
// provider authorization URL. [Manager.HandleCallback] consumes the pending
// state (a repeated or stale callback fails), exchanges the authorization code
// and stores the resulting token. Starting a new login invalidates any prior
// pending state, so the last initiated flow always wins.
//
// # Token Refresh
//
// [Manager.EnsureValid] returns a currently valid access token, refreshing
// through the stored refresh token when the expiry is within the safety
// margin. The store lock is held across the refresh network call, so at most
// one refresh is in flight at a time; concurrent callers observe either the
// pre-refresh or post-refresh token. A rejected refresh clears the store and
// requires a new login.
//
// # Errors
//
// Failures map onto the shared sentinels: [shared.ErrAuthorization] for state
// mismatches, rejected codes and rejected refresh tokens,
// [shared.ErrNotAuthenticated] when no session exists yet.
package session

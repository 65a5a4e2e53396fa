// Package services defines the [Service] interface for listening-data providers and implements it for Spotify.
//
// # Service Interface
//
// The interface exposes typed operations for profile, top tracks, top
// artists, listening history and audio features, plus a raw
// [Service.Get] escape hatch returning the provider's JSON body.
//
// # Spotify Implementation
//
// [SpotifyService] routes every request through a [session.Manager], which
// guarantees a valid bearer token and performs transparent refresh. The
// service itself never retries; each call either succeeds or surfaces one of:
//   - [shared.ErrNotAuthenticated] : no login has completed yet
//   - [shared.ErrAuthorization] : the session is no longer refreshable
//   - [*UpstreamError] : the provider answered with a non-success status
//
// # API Mappings
//
// Provider payloads are converted to the normalized DTOs ([Track], [Artist],
// [UserProfile], [PlayedTrack], [AudioFeatures]): artist lists are flattened
// to a comma-separated string, follower counts and external URLs are lifted
// out of their envelopes, and request limits are clamped to Spotify's 1..50.
package services

// Package stats aggregates listening data into summary reports and builds
// audio-feature datasets for notebook analysis.
//
// # Reports
//
// [Compute] reduces top tracks and artists into a [Report]: genre frequency,
// popularity averages, estimated listening hours and a coarse
// [DiscoveryLevel] describing how mainstream the listening profile is.
//
// # Audio Features
//
// [FeaturesEngine.Fetch] retrieves audio analysis for the user's top tracks.
// Feature lookups run in small batches through a bounded worker pool paced by
// a [rate.Limiter]; a batch rejected with HTTP 403 falls back to per-track
// requests, since the batch endpoint is restricted for some applications.
//
// # Progress Reporting
//
// Long-running fetches report [ProgressUpdate] values over a channel using
// non-blocking sends, so a missing or slow consumer never stalls the fetch.
package stats

// Package simpleembed augments stored embed records with metadata derived
// from an external URL (oEmbed-style resource descriptions).
//
// It exposes a single Service interface that orchestrates the ingestion
// pipeline: fetching provider metadata once per save cycle, normalizing it
// into typed fields, optionally materializing the remote photo or thumbnail
// as a locally stored asset, and resolving a rendering representation at
// display time. Implementations of repositories (memory, Postgres), blob
// stores (memory, filesystem, S3) and the asset store are provided under
// subpackages.
//
// Processing Context
//
// Every record is processed through a Session. The session snapshots the
// persisted source URL (for change detection), memoizes the metadata fetch
// so validation and normalization share one result, and carries the
// display-only state (CSS classes, template base name). Sessions are never
// shared across records or requests.
package simpleembed

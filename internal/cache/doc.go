// Package cache implements the persistent generation cache and usage ledger.
//
// A single bbolt database holds one bucket per external service (audio
// synthesis jobs, generated title batches, cover image results), a title
// pool bucket, and a rolling per-day usage ledger. Entries are keyed by a
// canonical dedup key derived from the semantic identity of the call, so
// repeated requests for the same content resolve to the same slot and paid
// service calls are never repeated for identical inputs.
package cache

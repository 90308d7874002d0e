// Package tasks implements the bulk generation pipeline and its satellites.
//
// The core abstraction is [GenerationEngine], which drives multi-stage content
// synthesis: title resolution, audio synthesis submission, bounded status
// polling, best-effort asset download, and per-track cover image synthesis.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
//
// Around the engine sit the [Scheduler] (recurring runs), the [Importer]
// (reconstruction of externally issued synthesis jobs), and the [Deployer]
// (idempotent promotion of generated tracks into the production catalog).
//
// The whole pipeline is a single logical flow: batches run sequentially, and
// cancellation is cooperative, consulted only between batches and between
// polling attempts, never inside an in-flight call.
package tasks

// Package models defines domain entities and persistence interfaces for the Soundry content pipeline.
//
// The package contains two categories of types:
//
// 1. Persistent Entities: Database-backed models with full lifecycle management
//   - [GeneratedTrack] : AI-generated audio artifacts awaiting or past catalog deployment
//   - [Schedule] : Recurring bulk-generation definitions with next-run bookkeeping
//
// 2. Interfaces shared by the persistence layer:
//   - [Model] : ID generation, timestamps, validation
//   - [Repository] : Standard CRUD operations for database access
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
package models

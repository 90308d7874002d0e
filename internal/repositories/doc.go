// Package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling CRUD operations, soft deletes, and sequence generation. Two
// entities are persisted relationally: generated tracks awaiting catalog
// deployment, and recurring generation schedules.
package repositories

// Package internal documents the place directory server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, pagination, and routing
// - domain: business logic and domain models (places, users, ids)
// - storage: database access and repositories (pgx + Postgres/PostGIS)
// - auth, config, metrics, sanitize: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal

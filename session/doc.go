// Package session provides session state stores: an in-memory store for
// tests and single-process deployments, and a SQLite-backed store for
// persistence across restarts.
package session

// Package state provides the persistence collaborators of the settings
// engine: stores that get, set and delete raw string values keyed by
// (owning domain, persistence key).
//
// Stores never interpret values; encoding belongs to the setting kinds.
// Three drivers are available:
//
//	memory  MemoryStore, process-local, for tests and examples
//	sqlite  SQLiteStore, one table with an upsert per write (modernc.org/sqlite)
//	badger  BadgerStore, one key per (domain, key) pair (badger/v3)
//
// Open selects a driver from configuration. Every store keys its records with
// Ref.Identifier so the layout is the same across drivers.
package state

// Package store keeps the registry of named template definitions.
//
// Definitions are loaded from a Source (a directory of YAML/JSON files or a
// Redis hash) into an immutable snapshot that is swapped atomically on every
// successful refresh. Readers never block and never observe a partially
// loaded registry; a failed refresh keeps the previous snapshot active.
package store

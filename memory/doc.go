// Package memory contains concrete core.Index implementations. The index
// interface and Chunk type reside in the core package; select an
// implementation (the in-memory index below or memory/sqlite) at wiring time.
package memory

// Package audit defines the append-only audit trail contract for
// administrative authorization mutations.
//
// Every mutation (role assignment, role removal, flag override change)
// produces one Entry delivered to a Sink after the mutation is durably
// persisted. Sink failures are deliberately non-fatal: an already-committed
// authorization change is never rolled back because its audit write failed;
// the caller receives the error as a warning to alert or retry out-of-band.
//
// PostgresSink appends to an audit_entries table; MemorySink and NoopSink
// cover tests and deployments that audit elsewhere.
package audit

/*
Package storage implements the scheduler's state-store abstraction: a
content-addressed key/value interface (Store) over opaque bytes, with two
backends.

BoltStore is the embedded single-node backend (go.etcd.io/bbolt): one file
per scheduler process, one bucket holding every key, JSON values supplied by
callers as opaque bytes. Locks are process-local sync.Mutex values keyed by
lock path — sufficient for a single scheduler process, a no-op across
processes as the spec allows.

RedisStore is the external consistent KV backend (github.com/redis/go-redis/v9):
SCAN MATCH for prefix scans, SETNX with a TTL and a token-checked DEL for
advisory locks. Use it when multiple scheduler processes share one state
back-end and need real cross-process mutual exclusion on job assignment.

Callers (pkg/state) own key layout and entity encoding; this package only
ever sees namespaced string keys and byte slices.
*/
package storage

package storage

import "context"

// KV is one key/value pair returned by Scan, ordered lexicographically by key.
type KV struct {
	Key   string
	Value []byte
}

// Unlock releases an advisory lock acquired by Store.Lock.
type Unlock func()

// Store is the content-addressed key/value abstraction the scheduler state
// machine is built on. Keys are human-readable paths under a namespace
// prefix; values are opaque bytes. Writes are durable; ordering between
// writes to unrelated keys is unspecified. Concurrent readers see a
// consistent snapshot of any single key.
type Store interface {
	// Get returns the value stored at key, or (nil, false, nil) if absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put upserts key to value.
	Put(ctx context.Context, key string, value []byte) error

	// Scan returns every key/value pair whose key has the given prefix,
	// ordered lexicographically by key.
	Scan(ctx context.Context, prefix string) ([]KV, error)

	// Lock acquires an advisory lock on key, blocking until acquired or ctx
	// is done. It is for cross-process mutual exclusion on a single job's
	// task assignment; on single-node backends it only serializes callers
	// within the process. The returned Unlock must be called to release it.
	Lock(ctx context.Context, key string) (Unlock, error)

	// Close releases any resources held by the store.
	Close() error
}

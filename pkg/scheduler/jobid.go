package scheduler

import (
	"crypto/rand"
	"math/big"
)

const jobIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const jobIDLength = 7

// newJobID returns a 7-character alphanumeric id, matching the random job
// identifier shape a query-execution request is assigned on acceptance.
func newJobID() string {
	id := make([]byte, jobIDLength)
	for i := range id {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(jobIDAlphabet))))
		if err != nil {
			// crypto/rand failure is not recoverable; a predictable
			// fallback index still yields a valid, if less random, id.
			id[i] = jobIDAlphabet[0]
			continue
		}
		id[i] = jobIDAlphabet[n.Int64()]
	}
	return string(id)
}

package registry

import (
	"hash/fnv"
	"sync"
)

const keyLockStripes = 64

// keyLock linearizes read-modify-write sequences per identity key without
// serializing the whole registry. Operations on the same key contend on one
// stripe; operations on different keys almost always proceed in parallel.
// Stripe locks are held across external backend calls, so the per-registry
// map mutex must never be acquired around a keyLock acquisition (the inverse
// order is the rule: stripe first, map second).
type keyLock struct {
	stripes [keyLockStripes]sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{}
}

// Lock acquires the stripe owning key and returns its unlock function.
func (l *keyLock) Lock(key string) func() {
	stripe := &l.stripes[stripeIndex(key)]
	stripe.Lock()
	return stripe.Unlock
}

func stripeIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % keyLockStripes
}

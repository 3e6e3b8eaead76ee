package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	t.Parallel()

	locks := newKeyLock()
	unlock := locks.Lock("checkout")

	acquired := make(chan struct{})
	go func() {
		second := locks.Lock("checkout")
		close(acquired)
		second()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquisition succeeded while the stripe was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second acquisition never completed after unlock")
	}
}

func TestKeyLockIndependentKeysProceed(t *testing.T) {
	t.Parallel()

	locks := newKeyLock()
	unlock := locks.Lock("checkout")
	defer unlock()

	done := make(chan struct{})
	go func() {
		// Walk enough distinct keys that at least one lands on another
		// stripe regardless of hash placement.
		for i := 0; i < keyLockStripes*2; i++ {
			key := string(rune('a'+i%26)) + string(rune('0'+i%10))
			if stripeIndex(key) == stripeIndex("checkout") {
				continue
			}
			u := locks.Lock(key)
			u()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("independent keys blocked behind an unrelated stripe")
	}
}

func TestStripeIndexStable(t *testing.T) {
	t.Parallel()

	first := stripeIndex("checkout.upload")
	second := stripeIndex("checkout.upload")
	require.Equal(t, first, second)
	require.Less(t, int(first), keyLockStripes)
}

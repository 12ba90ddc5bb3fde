package bridge

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDomainAddressImmediate(t *testing.T) {
	lookup := func() (string, bool) { return testDomainAddr, true }

	addr, err := ResolveDomainAddress(context.Background(), lookup, time.Second)
	require.NoError(t, err)
	assert.Equal(t, testDomainAddr, addr)
}

func TestResolveDomainAddressAfterAnnouncement(t *testing.T) {
	var announced atomic.Bool
	lookup := func() (string, bool) {
		if announced.Load() {
			return testDomainAddr, true
		}
		return "", false
	}
	time.AfterFunc(300*time.Millisecond, func() { announced.Store(true) })

	start := time.Now()
	addr, err := ResolveDomainAddress(context.Background(), lookup, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, testDomainAddr, addr)
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestResolveDomainAddressWindowElapsed(t *testing.T) {
	lookup := func() (string, bool) { return "", false }

	addr, err := ResolveDomainAddress(context.Background(), lookup, 100*time.Millisecond)
	require.Error(t, err)
	assert.Empty(t, addr)
	assert.Contains(t, err.Error(), "no linked EVM address")
}

func TestResolveDomainAddressCancelled(t *testing.T) {
	lookup := func() (string, bool) { return "", false }
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	addr, err := ResolveDomainAddress(ctx, lookup, 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, addr)
}

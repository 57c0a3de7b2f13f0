package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSBroadcasterApply(t *testing.T) {
	c := New()
	ctx := context.Background()
	b := &NATSBroadcaster{subject: DefaultSubject, origin: "self"}
	var calls atomic.Int32

	_, err := GetOrLoad(ctx, c, "k", []string{"item:1"}, counter("v", &calls))
	require.NoError(t, err)

	// Own messages are ignored.
	own, _ := json.Marshal(invalidation{Origin: "self", Tags: []string{"item:1"}})
	b.apply(c, own)
	_, _ = GetOrLoad(ctx, c, "k", []string{"item:1"}, counter("v", &calls))
	assert.EqualValues(t, 1, calls.Load())

	// Malformed messages are dropped.
	b.apply(c, []byte("{"))
	_, _ = GetOrLoad(ctx, c, "k", []string{"item:1"}, counter("v", &calls))
	assert.EqualValues(t, 1, calls.Load())

	remote, _ := json.Marshal(invalidation{Origin: "other", Tags: []string{"item:1"}})
	b.apply(c, remote)
	_, _ = GetOrLoad(ctx, c, "k", []string{"item:1"}, counter("v", &calls))
	assert.EqualValues(t, 2, calls.Load())
}

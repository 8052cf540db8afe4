package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopLocker(t *testing.T) {
	l := NewNoop()
	lease, err := l.Obtain(context.Background(), "lock:po-number:2026", time.Second)
	require.NoError(t, err)
	assert.NoError(t, lease.Release(context.Background()))

	// a second obtain on the same key never blocks
	_, err = l.Obtain(context.Background(), "lock:po-number:2026", time.Second)
	assert.NoError(t, err)
}

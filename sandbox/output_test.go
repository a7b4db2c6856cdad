package sandbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedBuffer(t *testing.T) {
	t.Run("UnderLimit", func(t *testing.T) {
		buf := newBoundedBuffer(16)
		n, err := buf.Write([]byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, "hello", buf.String())
		assert.False(t, buf.Truncated())
	})

	t.Run("ExactlyAtLimit", func(t *testing.T) {
		buf := newBoundedBuffer(5)
		_, err := buf.Write([]byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, "hello", buf.String())
		assert.False(t, buf.Truncated())
	})

	t.Run("OverLimit", func(t *testing.T) {
		buf := newBoundedBuffer(5)
		n, err := buf.Write([]byte("hello world"))
		require.NoError(t, err)
		// The writer reports full consumption so the producer never sees
		// a short write, but retains only the cap.
		assert.Equal(t, 11, n)
		assert.Equal(t, "hello", buf.String())
		assert.True(t, buf.Truncated())
	})

	t.Run("WritesAfterFull", func(t *testing.T) {
		buf := newBoundedBuffer(4)
		_, _ = buf.Write([]byte("full"))
		n, err := buf.Write([]byte("more"))
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, "full", buf.String())
		assert.True(t, buf.Truncated())
	})

	t.Run("ManySmallWrites", func(t *testing.T) {
		buf := newBoundedBuffer(10)
		for i := 0; i < 100; i++ {
			_, err := buf.Write([]byte("ab"))
			require.NoError(t, err)
		}
		assert.Len(t, buf.String(), 10)
		assert.True(t, buf.Truncated())
	})
}

func TestTruncate(t *testing.T) {
	s, cut := truncate("hello", 10)
	assert.Equal(t, "hello", s)
	assert.False(t, cut)

	s, cut = truncate(strings.Repeat("x", 20), 10)
	assert.Len(t, s, 10)
	assert.True(t, cut)

	s, cut = truncate("anything", 0)
	assert.Equal(t, "anything", s)
	assert.False(t, cut)
}

package intern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternDeduplicates(t *testing.T) {
	p := New(0, 0)
	a, err := p.Intern("hello")
	require.NoError(t, err)
	b, err := p.Intern("hello")
	require.NoError(t, err)
	assert.True(t, Same(a, b))
	assert.Equal(t, 1, p.Len())
}

func TestInternRejectsOverlongString(t *testing.T) {
	p := New(0, 4)
	_, err := p.Intern("toolong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStringTooLarge)
}

func TestInternRejectsAtCapacity(t *testing.T) {
	p := New(1, 0)
	_, err := p.Intern("a")
	require.NoError(t, err)
	_, err = p.Intern("b")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCacheFull)

	// Re-interning the already-pooled string still succeeds at capacity.
	_, err = p.Intern("a")
	require.NoError(t, err)
}

func TestInternOrFallbackNeverFails(t *testing.T) {
	p := New(1, 0)
	_, _ = p.Intern("a")
	h := p.InternOrFallback("b")
	assert.Equal(t, "b", h.String())

	h2 := p.InternOrFallback(strings.Repeat("x", 50))
	assert.Equal(t, 50, len(h2.String()))
}

func TestGlobalPoolSeeded(t *testing.T) {
	h, err := Global().Intern("string")
	require.NoError(t, err)
	assert.Equal(t, "string", h.String())
}

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placequery/internal/domain"
)

func TestReleasePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		release string
		valid   bool
	}{
		{"2026-01-21.0", true},
		{"2024-11-13.1", true},
		{"2026-01-21", false},
		{"latest", false},
		{"2026-01-21.0'; DROP VIEW places; --", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, releasePattern.MatchString(tt.release), "release %q", tt.release)
	}
}

func TestRegionPattern(t *testing.T) {
	t.Parallel()

	assert.True(t, regionPattern.MatchString("us-west-2"))
	assert.True(t, regionPattern.MatchString("eu-central-1"))
	assert.False(t, regionPattern.MatchString("us west 2"))
	assert.False(t, regionPattern.MatchString("region'; SET foo"))
	assert.False(t, regionPattern.MatchString(""))
}

func TestBindRelease_RejectsMalformedRelease(t *testing.T) {
	t.Parallel()

	// The format check runs before any DDL touches the database, so a zero
	// Engine is sufficient.
	e := &Engine{}
	err := e.BindRelease(context.Background(), "not-a-release")
	require.Error(t, err)
	var binding *domain.ViewBindingError
	assert.ErrorAs(t, err, &binding)
	assert.Equal(t, "", e.BoundRelease())
}

func TestNeedsBind(t *testing.T) {
	t.Parallel()

	e := &Engine{}
	assert.True(t, e.NeedsBind("2026-01-21.0"), "fresh engine is unbound")

	e.boundRelease = "2026-01-21.0"
	assert.False(t, e.NeedsBind("2026-01-21.0"))
	assert.True(t, e.NeedsBind("2026-03-19.1"))
	assert.Equal(t, "2026-01-21.0", e.BoundRelease())
}

func TestBindRelease_IdempotentWhenBound(t *testing.T) {
	t.Parallel()

	// db is nil; a re-bind to the already-bound release must return before
	// reaching it.
	e := &Engine{boundRelease: "2026-01-21.0"}
	assert.NoError(t, e.BindRelease(context.Background(), "2026-01-21.0"))
}

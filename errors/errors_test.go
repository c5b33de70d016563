package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRasError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeCorruptRepository, "not a checkout")
	if err.Code != ErrCodeCorruptRepository {
		t.Errorf("expected code %s, got %s", ErrCodeCorruptRepository, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeCommandFailed, "command failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeCommandFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeCorruptRepository) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("path", "/ws/pkgA").WithDetail("attempt", 2)
	if detailed.Details["path"] != "/ws/pkgA" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := CorruptRepository("/ws/pkgA", "https://example.com/org/pkgA", "not a git repository")
	assert.Equal(t, ErrCodeCorruptRepository, err.Code)
	assert.Equal(t, "/ws/pkgA", err.Details["path"])

	err = NoMatchingScheme("ftp://example.com/x")
	assert.Equal(t, ErrCodeNoMatchingScheme, err.Code)
	assert.Equal(t, "ftp://example.com/x", err.Details["url"])

	err = ManifestNotFound("/ws/repos/deps.repos")
	assert.Equal(t, ErrCodeManifestNotFound, GetCode(err))
}

func TestAggregate(t *testing.T) {
	assert.NoError(t, Aggregate("init", nil))
	assert.NoError(t, Aggregate("init", []error{nil, nil}))

	corrupt := CorruptRepository("/ws/a", "https://example.com/org/a", "wrong remote")
	plain := fmt.Errorf("b: clone failed")
	err := Aggregate("init", []error{nil, fmt.Errorf("a: %w", corrupt), plain})
	require.Error(t, err)

	assert.Equal(t, ErrCodeAggregatedOperation, GetCode(err))
	assert.True(t, Is(err, ErrCodeCorruptRepository), "aggregated failures should be searchable by code")
	assert.True(t, stderrors.Is(err, plain))

	rasErr, ok := As(err)
	require.True(t, ok)
	assert.Len(t, rasErr.Failures(), 2)
	assert.Equal(t, 2, rasErr.Details["failed"])
}

package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordError_NotFound(t *testing.T) {
	err := BaselineNotFound("b-123")

	assert.EqualError(t, err, "baseline not found: b-123")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsAlreadyExists(err))

	var rec *RecordError
	require.True(t, errors.As(err, &rec))
	assert.Equal(t, ResourceBaseline, rec.Resource)
	assert.Equal(t, "b-123", rec.ID)
}

func TestRecordError_AlreadyExists(t *testing.T) {
	err := ProfileExists("Quick Scan")

	assert.EqualError(t, err, "profile already exists: Quick Scan")
	assert.True(t, IsAlreadyExists(err))
	assert.False(t, IsNotFound(err))
}

func TestFieldError(t *testing.T) {
	tests := []struct {
		field    string
		reason   string
		expected string
	}{
		{"id", "must not be empty", `invalid input for field "id": must not be empty`},
		{"", "malformed record", "invalid input: malformed record"},
	}

	for _, tt := range tests {
		err := Invalid(tt.field, tt.reason)
		assert.EqualError(t, err, tt.expected)
		assert.True(t, IsInvalidInput(err))
	}
}

func TestMissingRecord(t *testing.T) {
	resource, id, ok := MissingRecord(fmt.Errorf("show: %w", ProfileNotFound("Quick Scan")))
	require.True(t, ok)
	assert.Equal(t, ResourceProfile, resource)
	assert.Equal(t, "Quick Scan", id)

	_, _, ok = MissingRecord(ProfileExists("Quick Scan"))
	assert.False(t, ok)

	_, _, ok = MissingRecord(errors.New("boom"))
	assert.False(t, ok)
}

func TestWrappedErrors(t *testing.T) {
	err := fmt.Errorf("load profile: %w", ProfileNotFound("x"))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsInvalidInput(err))
	assert.False(t, IsAlreadyExists(err))
	assert.False(t, IsNotFound(nil))
}

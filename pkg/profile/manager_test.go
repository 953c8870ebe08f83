package profile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/netspectre/pkg/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "profiles"))
	require.NoError(t, err)
	return m
}

func TestManager_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	created, err := m.Create(ctx, sampleProfile())
	require.NoError(t, err)
	assert.Equal(t, "test-profile", created.Name)

	fetched, err := m.Get(ctx, "test-profile")
	require.NoError(t, err)
	assert.Equal(t, "1-1024", fetched.PortRange)
	assert.FileExists(t, filepath.Join(m.Dir(), "test-profile.json"))
}

func TestManager_List(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.Create(ctx, sampleProfile())
	require.NoError(t, err)

	p2 := sampleProfile()
	p2.Name = "another-profile"
	_, err = m.Create(ctx, p2)
	require.NoError(t, err)

	p3 := sampleProfile()
	p3.Name = "Beta"
	_, err = m.Create(ctx, p3)
	require.NoError(t, err)

	profiles, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "another-profile", profiles[0].Name)
	assert.Equal(t, "Beta", profiles[1].Name)
	assert.Equal(t, "test-profile", profiles[2].Name)
}

func TestManager_ListSkipsCorrupt(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.Create(ctx, sampleProfile())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "junk.json"), []byte("nope"), 0o600))
	m.Invalidate()

	profiles, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestManager_ListCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	profiles, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	// External write: invisible until invalidated.
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "external.json"),
		[]byte(`{"name":"external","port_range":"80","timeout":1000,"chunk_size":1}`), 0o600))

	profiles, err = m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	m.Invalidate()
	profiles, err = m.List(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "external", profiles[0].Name)

	// Mutating the returned slice must not leak into the cache.
	profiles[0].Name = "mutated"
	again, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "external", again[0].Name)
}

func TestManager_Update(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	_, err := m.Create(ctx, sampleProfile())
	require.NoError(t, err)

	updated := sampleProfile()
	updated.PortRange = "1-65535"
	result, err := m.Update(ctx, "test-profile", updated)
	require.NoError(t, err)
	assert.Equal(t, "1-65535", result.PortRange)

	fetched, err := m.Get(ctx, "test-profile")
	require.NoError(t, err)
	assert.Equal(t, "1-65535", fetched.PortRange)
}

func TestManager_UpdateRename(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	_, err := m.Create(ctx, sampleProfile())
	require.NoError(t, err)

	other := sampleProfile()
	other.Name = "other"
	_, err = m.Create(ctx, other)
	require.NoError(t, err)

	renamed := sampleProfile()
	renamed.Name = "renamed"
	_, err = m.Update(ctx, "test-profile", renamed)
	require.NoError(t, err)

	_, err = m.Get(ctx, "test-profile")
	assert.True(t, storage.IsNotFound(err))
	_, err = m.Get(ctx, "renamed")
	assert.NoError(t, err)

	clash := sampleProfile()
	clash.Name = "other"
	_, err = m.Update(ctx, "renamed", clash)
	assert.True(t, storage.IsAlreadyExists(err))
}

func TestManager_UpdateErrors(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.Update(ctx, "missing", sampleProfile())
	assert.True(t, storage.IsNotFound(err))

	_, err = m.Create(ctx, sampleProfile())
	require.NoError(t, err)

	bad := sampleProfile()
	bad.Timeout = 1
	_, err = m.Update(ctx, "test-profile", bad)
	assert.True(t, storage.IsInvalidInput(err))
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	_, err := m.Create(ctx, sampleProfile())
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "test-profile"))

	_, err = m.Get(ctx, "test-profile")
	assert.True(t, storage.IsNotFound(err))
	assert.True(t, storage.IsNotFound(m.Delete(ctx, "test-profile")))
}

func TestManager_DuplicateName(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	_, err := m.Create(ctx, sampleProfile())
	require.NoError(t, err)

	_, err = m.Create(ctx, sampleProfile())
	assert.True(t, storage.IsAlreadyExists(err))
}

func TestManager_CreateInvalid(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	bad := sampleProfile()
	bad.Name = ""
	bad.PortRange = "abc"
	_, err := m.Create(ctx, bad)
	require.Error(t, err)
	assert.True(t, storage.IsInvalidInput(err))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{msgNameEmpty, msgPortFormat}, verr.Messages)
	assert.Equal(t, msgNameEmpty+"; "+msgPortFormat, err.Error())
}

func TestManager_SafeModeEnforcement(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	p := sampleProfile()
	p.SafeMode = true
	p.ChunkSize = 200
	p.Timeout = 500
	p.SecurityAudit = true

	created, err := m.Create(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, uint32(50), created.ChunkSize)
	assert.Equal(t, uint32(1000), created.Timeout)
	assert.False(t, created.SecurityAudit)

	stored, err := m.Get(ctx, p.Name)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
}

func TestManager_GetNotFound(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.Get(ctx, "nonexistent")
	assert.True(t, storage.IsNotFound(err))

	_, err = m.Get(ctx, "../etc/passwd")
	assert.True(t, storage.IsNotFound(err))
}

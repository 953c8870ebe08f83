package profile

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/netspectre/pkg/storage"
)

// Manager provides CRUD over profiles stored one JSON file per name.
//
// List results are cached until the next write through the manager or an
// explicit Invalidate (see Watcher for external edits).
type Manager struct {
	store  *storage.JSONStore[Profile]
	logger zerolog.Logger

	mu     sync.Mutex
	cached []Profile
}

// NewManager opens the profile store in dir, creating it if needed.
func NewManager(dir string) (*Manager, error) {
	store, err := storage.NewJSONStore[Profile](dir, storage.ResourceProfile)
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:  store,
		logger: log.With().Str("component", "profile").Logger(),
	}, nil
}

// Dir returns the directory holding the profile files.
func (m *Manager) Dir() string {
	return m.store.Dir()
}

// List returns all readable profiles ordered by case-insensitive name.
func (m *Manager) List(ctx context.Context) ([]Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached == nil {
		records, err := m.store.List(ctx)
		if err != nil {
			return nil, err
		}
		profiles := make([]Profile, 0, len(records))
		for _, r := range records {
			profiles = append(profiles, r.Value)
		}
		sort.SliceStable(profiles, func(i, j int) bool {
			return strings.ToLower(profiles[i].Name) < strings.ToLower(profiles[j].Name)
		})
		m.cached = profiles
	}

	out := make([]Profile, len(m.cached))
	copy(out, m.cached)
	return out, nil
}

// Get returns the profile called name.
func (m *Manager) Get(ctx context.Context, name string) (Profile, error) {
	p, err := m.store.Get(ctx, name)
	if storage.IsInvalidInput(err) {
		return Profile{}, storage.ProfileNotFound(name)
	}
	return p, err
}

// Validate returns the validation messages for p.
func (m *Manager) Validate(p Profile) []string {
	return Validate(p)
}

// Create validates and stores a new profile. Safe mode limits are applied
// before writing; the stored profile is returned.
func (m *Manager) Create(ctx context.Context, p Profile) (Profile, error) {
	if err := checkValid(p); err != nil {
		return Profile{}, err
	}
	p = p.normalize()

	if err := m.store.Create(ctx, p.Name, p); err != nil {
		return Profile{}, err
	}
	m.Invalidate()

	m.logger.Info().Str("profile", p.Name).Bool("safe_mode", p.SafeMode).Msg("Profile created")
	return p, nil
}

// Update replaces the profile called name with p. When p.Name differs the
// profile is renamed; the new name must not already be taken.
func (m *Manager) Update(ctx context.Context, name string, p Profile) (Profile, error) {
	exists, err := m.store.Exists(ctx, name)
	if err != nil && !storage.IsInvalidInput(err) {
		return Profile{}, err
	}
	if !exists {
		return Profile{}, storage.ProfileNotFound(name)
	}

	if err := checkValid(p); err != nil {
		return Profile{}, err
	}
	p = p.normalize()

	if err := m.store.Rename(ctx, name, p.Name, p); err != nil {
		return Profile{}, err
	}
	m.Invalidate()

	ev := m.logger.Info().Str("profile", p.Name)
	if p.Name != name {
		ev = ev.Str("previous", name)
	}
	ev.Msg("Profile updated")
	return p, nil
}

// Delete removes the profile called name.
func (m *Manager) Delete(ctx context.Context, name string) error {
	err := m.store.Delete(ctx, name)
	if storage.IsInvalidInput(err) {
		return storage.ProfileNotFound(name)
	}
	if err != nil {
		return err
	}
	m.Invalidate()

	m.logger.Info().Str("profile", name).Msg("Profile deleted")
	return nil
}

// Invalidate drops the cached profile list.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.cached = nil
	m.mu.Unlock()
}

func checkValid(p Profile) error {
	if errs := Validate(p); len(errs) > 0 {
		return &ValidationError{Messages: errs}
	}
	return nil
}

// ValidationError lists every reason a profile was rejected. It matches
// storage.ErrInvalidInput.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Unwrap returns storage.ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return storage.ErrInvalidInput
}

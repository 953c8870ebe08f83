// Package baseline stores named snapshots of a host inventory and compares
// later scans against them.
package baseline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/netspectre/pkg/diff"
	"github.com/vulntor/netspectre/pkg/inventory"
	"github.com/vulntor/netspectre/pkg/storage"
)

// SchemaVersion is written into every new snapshot.
const SchemaVersion = "1.0.0"

// supportedSchemas is the range of snapshot schemas this build can read.
var supportedSchemas = mustConstraint("^1")

// Meta summarizes a stored snapshot.
type Meta struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Timestamp string `json:"timestamp"`
	HostCount int    `json:"host_count"`
}

// Baseline is a stored snapshot: its metadata and the hosts seen.
type Baseline struct {
	Meta          Meta             `json:"meta"`
	SchemaVersion string           `json:"schema_version,omitempty"`
	Hosts         []inventory.Host `json:"hosts"`
}

// Manager creates, lists and compares snapshots.
type Manager struct {
	store  *storage.JSONStore[Baseline]
	now    func() time.Time
	newID  func() string
	logger zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source used for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator replaces the UUIDv4 id source.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// NewManager opens the baseline store in dir, creating it if needed.
func NewManager(dir string, opts ...Option) (*Manager, error) {
	store, err := storage.NewJSONStore[Baseline](dir, storage.ResourceBaseline)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: log.With().Str("component", "baseline").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Dir returns the directory holding the snapshot files.
func (m *Manager) Dir() string {
	return m.store.Dir()
}

// CreateSnapshot stores hosts as a new snapshot. An empty label defaults to
// "Baseline " followed by the first eight characters of the id.
func (m *Manager) CreateSnapshot(ctx context.Context, hosts []inventory.Host, label string) (Meta, error) {
	id := m.newID()
	if label == "" {
		label = "Baseline " + shortID(id)
	}

	stored := make([]inventory.Host, len(hosts))
	for i, h := range hosts {
		stored[i] = h.Clone()
		if stored[i].Ports == nil {
			stored[i].Ports = []uint16{}
		}
	}

	meta := Meta{
		ID:        id,
		Label:     label,
		Timestamp: m.now().UTC().Format(time.RFC3339Nano),
		HostCount: len(hosts),
	}
	b := Baseline{Meta: meta, SchemaVersion: SchemaVersion, Hosts: stored}

	if err := m.store.Create(ctx, id, b); err != nil {
		return Meta{}, fmt.Errorf("failed to store snapshot: %w", err)
	}

	m.logger.Info().Str("id", id).Str("label", label).Int("hosts", meta.HostCount).Msg("Snapshot created")
	return meta, nil
}

// List returns the metadata of every readable snapshot, newest first.
// Snapshots written by an incompatible schema are skipped.
func (m *Manager) List(ctx context.Context) ([]Meta, error) {
	records, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	metas := make([]Meta, 0, len(records))
	for _, r := range records {
		if err := checkSchema(r.Value.SchemaVersion); err != nil {
			m.logger.Warn().Err(err).Str("id", r.ID).Msg("Skipping snapshot")
			continue
		}
		metas = append(metas, r.Value.Meta)
	}

	sort.SliceStable(metas, func(i, j int) bool {
		return newer(metas[i], metas[j])
	})
	return metas, nil
}

// Get loads the snapshot with id.
func (m *Manager) Get(ctx context.Context, id string) (Baseline, error) {
	b, err := m.store.Get(ctx, id)
	if storage.IsInvalidInput(err) {
		return Baseline{}, storage.BaselineNotFound(id)
	}
	if err != nil {
		return Baseline{}, err
	}
	if err := checkSchema(b.SchemaVersion); err != nil {
		return Baseline{}, fmt.Errorf("baseline %s: %w", id, err)
	}
	if b.Hosts == nil {
		b.Hosts = []inventory.Host{}
	}
	return b, nil
}

// Delete removes the snapshot with id.
func (m *Manager) Delete(ctx context.Context, id string) error {
	err := m.store.Delete(ctx, id)
	if storage.IsInvalidInput(err) {
		return storage.BaselineNotFound(id)
	}
	if err != nil {
		return err
	}
	m.logger.Info().Str("id", id).Msg("Snapshot deleted")
	return nil
}

// Diff compares the snapshot with id against current.
func (m *Manager) Diff(ctx context.Context, id string, current []inventory.Host) (diff.Result, error) {
	b, err := m.Get(ctx, id)
	if err != nil {
		return diff.Result{}, err
	}
	res := diff.Compute(b.Hosts, current)

	m.logger.Debug().
		Str("id", id).
		Int("new", res.Summary.TotalNew).
		Int("missing", res.Summary.TotalMissing).
		Int("port_changes", res.Summary.TotalPortChanges).
		Msg("Snapshot compared")
	return res, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// newer orders by parsed timestamp, falling back to the raw strings when
// either side does not parse.
func newer(a, b Meta) bool {
	ta, errA := time.Parse(time.RFC3339Nano, a.Timestamp)
	tb, errB := time.Parse(time.RFC3339Nano, b.Timestamp)
	if errA != nil || errB != nil || ta.Equal(tb) {
		if a.Timestamp != b.Timestamp {
			return a.Timestamp > b.Timestamp
		}
		return a.ID < b.ID
	}
	return ta.After(tb)
}

// ErrIncompatibleSchema is returned for snapshots this build cannot read.
var ErrIncompatibleSchema = errors.New("incompatible snapshot schema")

func checkSchema(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrIncompatibleSchema, version, err)
	}
	if !supportedSchemas.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrIncompatibleSchema, v, supportedSchemas)
	}
	return nil
}

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

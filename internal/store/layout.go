package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/DennisG8153/apkfeat/categorize"
	"github.com/DennisG8153/apkfeat/feature"
)

// LayoutVersion is the current on-disk layout version.
const LayoutVersion = 1

var (
	// ErrLegacyLayout marks a root written by an older layout that must be
	// migrated before use.
	ErrLegacyLayout = errors.New("legacy corpus layout, run migrate")
	// ErrLayoutMismatch marks a manifest whose version or feature types
	// differ from this build.
	ErrLayoutMismatch = errors.New("corpus layout mismatch")
)

// Manifest describes a corpus root.
type Manifest struct {
	Version      int       `json:"version"`
	FeatureTypes []string  `json:"feature_types"`
	RunID        string    `json:"run_id"`
	UpdatedAt    time.Time `json:"updated_at"`
	// Categorization is set when the root's samples and vocabulary are
	// categorized.
	Categorization *categorize.Profile `json:"categorization,omitempty"`
}

// NewManifest creates a manifest for the current layout with a fresh run id.
func NewManifest() *Manifest {
	return &Manifest{
		Version:      LayoutVersion,
		FeatureTypes: feature.Names(),
		RunID:        uuid.NewString(),
		UpdatedAt:    time.Now().UTC(),
	}
}

// ReadManifest reads the layout manifest. A missing manifest returns an
// error satisfying errors.Is(err, fs.ErrNotExist).
func (s *Store) ReadManifest() (*Manifest, error) {
	data, err := os.ReadFile(s.Path(ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}
	return &m, nil
}

// WriteManifest stores m, refreshing its timestamp.
func (s *Store) WriteManifest(m *Manifest) error {
	m.UpdatedAt = time.Now().UTC()
	return writeFileAtomic(s.Path(ManifestFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	})
}

// Check validates the root's layout. It returns a nil manifest for a root
// with no persisted vocabulary yet, ErrLegacyLayout for an unmigrated
// root and ErrLayoutMismatch for an incompatible manifest.
func (s *Store) Check() (*Manifest, error) {
	m, err := s.ReadManifest()
	if errors.Is(err, fs.ErrNotExist) {
		if legacy := s.legacyFiles(); len(legacy) > 0 {
			return nil, fmt.Errorf("%s: %w", s.Root, ErrLegacyLayout)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.Version != LayoutVersion {
		return nil, fmt.Errorf("%s: %w: version %d, want %d", s.Root, ErrLayoutMismatch, m.Version, LayoutVersion)
	}
	if !slices.Equal(m.FeatureTypes, feature.Names()) {
		return nil, fmt.Errorf("%s: %w: feature types %v, want %v", s.Root, ErrLayoutMismatch, m.FeatureTypes, feature.Names())
	}
	return m, nil
}

// Init checks the layout and writes a new manifest when none exists.
func (s *Store) Init() (*Manifest, error) {
	m, err := s.Check()
	if err != nil {
		return nil, err
	}
	if m != nil {
		return m, nil
	}
	m = NewManifest()
	if err := s.WriteManifest(m); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	slog.Debug("Initialized corpus layout", "root", s.Root, "run_id", m.RunID)
	return m, nil
}

type rename struct {
	from, to string
}

// legacyFiles lists vocabulary files named after historical feature types.
func (s *Store) legacyFiles() []rename {
	var out []rename
	for name, t := range feature.LegacyNames() {
		for _, pair := range [][2]string{
			{s.Path(UniqueDir, "unique_"+name+".txt"), s.UniquePath(t)},
			{s.Path(UniqueDir, "occurrences_"+name+".txt"), s.OccurrencesPath(t)},
		} {
			if exists(pair[0]) {
				out = append(out, rename{from: pair[0], to: pair[1]})
			}
		}
	}
	return out
}

// Migrate upgrades a legacy root to the current layout: historical type
// files are renamed to their canonical names and a manifest is written.
// It returns the number of renamed files. Migrating a current root is a
// no-op.
func (s *Store) Migrate() (int, error) {
	m, err := s.ReadManifest()
	if err == nil {
		if _, err := s.Check(); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return 0, err
	}

	legacy := s.legacyFiles()
	for _, r := range legacy {
		if exists(r.to) {
			return 0, fmt.Errorf("migrate: both %s and %s exist", r.from, r.to)
		}
	}
	for _, r := range legacy {
		if err := os.Rename(r.from, r.to); err != nil {
			return 0, fmt.Errorf("migrate: %w", err)
		}
		slog.Info("Migrated vocabulary file", "from", r.from, "to", r.to)
	}

	m = NewManifest()
	if err := s.WriteManifest(m); err != nil {
		return len(legacy), fmt.Errorf("write manifest: %w", err)
	}
	return len(legacy), nil
}

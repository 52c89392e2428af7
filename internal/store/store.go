// Package store persists vocabularies, corpus totals, the processed-sample
// log and sample files under a corpus root directory.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DennisG8153/apkfeat/feature"
	"github.com/DennisG8153/apkfeat/vocab"
)

// File and directory names of layout version 1.
const (
	ManifestFile     = "layout.json"
	UniqueDir        = "unique_features"
	TotalFilesFile   = "total_files.txt"
	FileTotalsFile   = "file_totals.txt"
	ProcessedLogFile = "processed_samples.txt"
	SnapshotFile     = "snapshot.json"
)

// SubCorpus is a labeled directory of sample files.
type SubCorpus struct {
	Dir   string
	Label int
}

// SubCorpora lists the labeled sample directories in traversal order.
var SubCorpora = []SubCorpus{
	{Dir: "benign_features", Label: 0},
	{Dir: "malicious_features", Label: 1},
}

// Store wraps a corpus root folder.
type Store struct {
	Root string
}

// New creates a Store for the given root.
func New(root string) *Store {
	return &Store{Root: root}
}

// Path joins elem onto the root.
func (s *Store) Path(elem ...string) string {
	return filepath.Join(append([]string{s.Root}, elem...)...)
}

// UniquePath returns the vocabulary file of type t.
func (s *Store) UniquePath(t feature.Type) string {
	return s.Path(UniqueDir, "unique_"+t.String()+".txt")
}

// OccurrencesPath returns the aggregate occurrence file of type t.
func (s *Store) OccurrencesPath(t feature.Type) string {
	return s.Path(UniqueDir, "occurrences_"+t.String()+".txt")
}

// SampleID returns the id of a sample file: its path relative to the root,
// with forward slashes.
func (s *Store) SampleID(path string) (string, error) {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", path, s.Root)
	}
	return filepath.ToSlash(rel), nil
}

// SamplePath resolves a sample id back to a path under the root.
func (s *Store) SamplePath(id string) string {
	return filepath.Join(s.Root, filepath.FromSlash(id))
}

// Label returns the label of the sub-corpus a sample id belongs to.
func Label(id string) (int, bool) {
	dir, _, _ := strings.Cut(id, "/")
	for _, sc := range SubCorpora {
		if sc.Dir == dir {
			return sc.Label, true
		}
	}
	return -1, false
}

// WriteSample writes rec to path in feature-file format.
func WriteSample(path string, rec *feature.Record) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return feature.Write(w, rec)
	})
}

// SaveSnapshot writes snap as JSON.
func SaveSnapshot(path string, snap *vocab.Snapshot) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	})
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (*vocab.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap vocab.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &snap, nil
}

// writeFileAtomic writes through a temporary file in the target directory
// and renames it into place.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

package store

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SampleLog is the append-only log of processed sample ids. Appending an id
// that is already logged is a no-op, so re-running a pass never duplicates
// entries.
type SampleLog struct {
	path string
	seen map[string]bool
	f    *os.File
}

// OpenLog opens the processed-sample log under the root, creating it when
// missing.
func (s *Store) OpenLog() (*SampleLog, error) {
	return OpenLog(s.Path(ProcessedLogFile))
}

// OpenLog opens the log at path.
func OpenLog(path string) (*SampleLog, error) {
	l := &SampleLog{path: path, seen: make(map[string]bool)}

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			if id := strings.TrimSpace(sc.Text()); id != "" {
				l.seen[id] = true
			}
		}
		err := sc.Err()
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	l.f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Has reports whether id is logged.
func (l *SampleLog) Has(id string) bool {
	return l.seen[id]
}

// Len returns the number of logged ids.
func (l *SampleLog) Len() int {
	return len(l.seen)
}

// Append logs ids not yet present and syncs the file.
func (l *SampleLog) Append(ids ...string) error {
	var b strings.Builder
	for _, id := range ids {
		if id == "" || l.seen[id] {
			continue
		}
		l.seen[id] = true
		b.WriteString(id)
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return nil
	}
	if _, err := l.f.WriteString(b.String()); err != nil {
		return err
	}
	return l.f.Sync()
}

// Close closes the log file.
func (l *SampleLog) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

// ResetProgress removes the corpus totals and the processed log, keeping
// the vocabulary.
func (s *Store) ResetProgress() error {
	for _, p := range []string{s.Path(TotalFilesFile), s.Path(FileTotalsFile), s.Path(ProcessedLogFile)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ResetRun removes the persisted vocabulary, totals and processed log so a
// pass starts from scratch. Sample files and the manifest are kept.
func (s *Store) ResetRun() error {
	if err := s.ResetProgress(); err != nil {
		return err
	}
	return os.RemoveAll(s.Path(UniqueDir))
}

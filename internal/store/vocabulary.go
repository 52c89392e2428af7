package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/DennisG8153/apkfeat/feature"
	"github.com/DennisG8153/apkfeat/vocab"
)

// LoadOptions controls vocabulary loading.
type LoadOptions struct {
	// ResetCounts keeps token ids but zeroes document frequencies, for
	// rerunning a frequency pass over a fixed vocabulary.
	ResetCounts bool
}

// SaveVocabulary writes one file per feature type, tokens in id order, as
// "<Tag>: <token> <docfreq>", plus the aggregate occurrence counts. Every
// type file is written even when empty.
func (s *Store) SaveVocabulary(x *vocab.Index) error {
	for _, t := range feature.Types() {
		entries := x.Entries(t)
		if err := writeFileAtomic(s.UniquePath(t), func(w io.Writer) error {
			for _, e := range entries {
				if _, err := fmt.Fprintf(w, "%s: %s %d\n", t.Tag(), e.Token, e.DocFreq); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return fmt.Errorf("write %s vocabulary: %w", t, err)
		}
		if err := writeFileAtomic(s.OccurrencesPath(t), func(w io.Writer) error {
			for _, e := range entries {
				if _, err := fmt.Fprintf(w, "%s: %s %d\n", t.Tag(), e.Token, e.Count); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return fmt.Errorf("write %s occurrences: %w", t, err)
		}
	}
	return nil
}

// LoadVocabulary rebuilds an index from the vocabulary files. Line order
// gives id order. Missing files load as empty types; malformed lines and
// lines tagged for another type are skipped with a warning.
func (s *Store) LoadVocabulary(opts LoadOptions) (*vocab.Index, error) {
	x := vocab.NewIndex()
	for _, t := range feature.Types() {
		path := s.UniquePath(t)
		err := readVocabFile(path, t, func(token string, n int) {
			df := n
			if opts.ResetCounts {
				df = 0
			}
			x.Insert(t, token, df, 0)
		})
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("Vocabulary file not created yet", "path", path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s vocabulary: %w", t, err)
		}

		occ := s.OccurrencesPath(t)
		err = readVocabFile(occ, t, func(token string, n int) {
			if opts.ResetCounts {
				n = 0
			}
			x.SetCount(t, token, n)
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s occurrences: %w", t, err)
		}
	}
	return x, nil
}

// LoadVocabularyChecked verifies the layout before loading, so a legacy or
// mismatched root is refused instead of silently read as empty.
func (s *Store) LoadVocabularyChecked(opts LoadOptions) (*vocab.Index, error) {
	if _, err := s.Check(); err != nil {
		return nil, err
	}
	return s.LoadVocabulary(opts)
}

// parseVocabLine parses "<Tag>: <token> <n>". A missing trailing integer
// counts as 1; a malformed one makes the line invalid.
func parseVocabLine(line string) (feature.Type, string, int, bool) {
	tag, body, found := strings.Cut(strings.TrimRight(line, "\r\n"), ": ")
	if !found {
		return 0, "", 0, false
	}
	t, ok := feature.ParseTag(tag)
	if !ok {
		return 0, "", 0, false
	}
	fields := strings.Fields(body)
	switch len(fields) {
	case 1:
		return t, fields[0], 1, true
	case 2:
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			return 0, "", 0, false
		}
		return t, fields[0], n, true
	}
	return 0, "", 0, false
}

func readVocabFile(path string, want feature.Type, fn func(token string, n int)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		t, token, n, ok := parseVocabLine(line)
		if !ok {
			slog.Warn("Skipping malformed vocabulary line", "path", path, "line", lineNo)
			continue
		}
		if t != want {
			slog.Warn("Skipping vocabulary line for another feature type", "path", path, "line", lineNo, "tag", t.Tag())
			continue
		}
		fn(token, n)
	}
	return sc.Err()
}

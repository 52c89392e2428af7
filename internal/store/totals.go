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

	"github.com/DennisG8153/apkfeat/vocab"
)

// SaveCorpus writes the sample count and per-sample feature totals.
func (s *Store) SaveCorpus(c *vocab.Corpus) error {
	if err := writeFileAtomic(s.Path(TotalFilesFile), func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%d\n", c.Files)
		return err
	}); err != nil {
		return fmt.Errorf("write %s: %w", TotalFilesFile, err)
	}
	if err := writeFileAtomic(s.Path(FileTotalsFile), func(w io.Writer) error {
		for _, id := range c.Samples() {
			n, _ := c.Total(id)
			if _, err := fmt.Fprintf(w, "%s: %d\n", id, n); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("write %s: %w", FileTotalsFile, err)
	}
	return nil
}

// LoadCorpus reads corpus totals. Missing files yield empty counters.
func (s *Store) LoadCorpus() (*vocab.Corpus, error) {
	c := vocab.NewCorpus()

	data, err := os.ReadFile(s.Path(TotalFilesFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		n, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", TotalFilesFile, err)
		}
		c.Files = n
	}

	f, err := os.Open(s.Path(FileTotalsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		idx := strings.LastIndex(line, ": ")
		if idx < 0 {
			slog.Warn("Skipping malformed totals line", "path", FileTotalsFile, "line", line)
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(line[idx+2:]))
		if err != nil {
			slog.Warn("Skipping malformed totals line", "path", FileTotalsFile, "line", line)
			continue
		}
		c.Set(line[:idx], n)
	}
	return c, sc.Err()
}

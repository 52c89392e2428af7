package feature

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
)

const maxLineSize = 1 << 20

// Line is one parsed feature-file line.
type Line struct {
	Type  Type
	Token string
	Count int
}

// ParseLine parses a line of the form "<Tag>: <token> [<count>]".
// The returned tag is the text before the first ": ", or empty for a line
// without one, useful for reporting lines whose tag is unknown. ok is false
// for blank lines, lines without a tag or token and lines with an unknown
// tag.
func ParseLine(line string) (l Line, tag string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Line{}, "", false
	}
	tag, body, found := strings.Cut(line, ": ")
	if !found {
		return Line{}, "", false
	}
	t, known := ParseTag(tag)
	if !known {
		return Line{}, tag, false
	}
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return Line{}, tag, false
	}
	count := 1
	if len(fields) == 2 {
		if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
			count = n
		}
	}
	return Line{Type: t, Token: fields[0], Count: count}, tag, true
}

// Parse reads a feature file into a record. Malformed lines are skipped and
// counted; lines with unknown tags are reported in a single warning per
// file. Only an error from the underlying reader is returned.
func Parse(id string, r io.Reader) (*Record, error) {
	rec := NewRecord(id)
	unknown := make(map[string]int)
	malformed := 0

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		text := sc.Text()
		l, tag, ok := ParseLine(text)
		if ok {
			rec.Add(l.Type, l.Token, l.Count)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if _, known := ParseTag(tag); tag != "" && !known {
			unknown[tag]++
		} else {
			malformed++
		}
	}
	if err := sc.Err(); err != nil {
		return rec, fmt.Errorf("read %s: %w", id, err)
	}

	if malformed > 0 {
		slog.Warn("Skipped malformed lines", "sample", id, "lines", malformed)
	}
	if len(unknown) > 0 {
		tags := make([]string, 0, len(unknown))
		for tag, n := range unknown {
			tags = append(tags, fmt.Sprintf("%q x%d", tag, n))
		}
		sort.Strings(tags)
		slog.Warn("Skipped lines with unknown tags", "sample", id, "tags", strings.Join(tags, ", "))
	}
	return rec, nil
}

// ReadFile parses the feature file at path. id identifies the sample in the
// returned record.
func ReadFile(path, id string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Parse(id, f)
}

// Write serializes rec as "<Tag>: <token> <count>" lines, types in
// enumeration order and tokens in first-seen order.
func Write(w io.Writer, rec *Record) error {
	bw := bufio.NewWriter(w)
	var err error
	rec.Each(func(t Type, token string, count int) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(bw, "%s: %s %d\n", t.Tag(), token, count)
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

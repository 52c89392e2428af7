// Package artifact publishes vocabulary directories as tar.gz archives to
// S3-compatible storage and fetches them back.
package artifact

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/DennisG8153/apkfeat/internal/store"
)

// VocabularyFiles reports whether rel, a slash-separated path relative to a
// corpus root, belongs to its frozen vocabulary rather than its samples.
func VocabularyFiles(rel string) bool {
	switch rel {
	case store.ManifestFile, store.TotalFilesFile, store.FileTotalsFile, store.SnapshotFile:
		return true
	}
	return strings.HasPrefix(rel, store.UniqueDir+"/")
}

// WriteArchive writes the files under dir accepted by include as a gzipped
// tar stream. A nil include accepts every file. It returns the number of
// archived files.
func WriteArchive(w io.Writer, dir string, include func(rel string) bool) (int, error) {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if include != nil && !include(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if _, err := io.Copy(tw, f); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		_ = tw.Close()
		_ = gw.Close()
		return count, fmt.Errorf("create archive: %w", err)
	}
	if err := tw.Close(); err != nil {
		_ = gw.Close()
		return count, fmt.Errorf("close tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return count, fmt.Errorf("close gzip: %w", err)
	}
	return count, nil
}

// ExtractArchive unpacks a gzipped tar stream into dest and returns the
// number of extracted files. Entries escaping dest are rejected.
func ExtractArchive(r io.Reader, dest string) (int, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("gzip reader: %w", err)
	}
	defer func() { _ = gr.Close() }()

	tr := tar.NewReader(gr)
	count := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read tar: %w", err)
		}

		name := filepath.FromSlash(hdr.Name)
		if !filepath.IsLocal(name) {
			return count, fmt.Errorf("archive entry %q escapes destination", hdr.Name)
		}
		target := filepath.Join(dest, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return count, fmt.Errorf("create parent dir: %w", err)
			}
			f, err := os.Create(target)
			if err != nil {
				return count, fmt.Errorf("create file %s: %w", target, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				_ = f.Close()
				return count, fmt.Errorf("write file %s: %w", target, err)
			}
			if err := f.Close(); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

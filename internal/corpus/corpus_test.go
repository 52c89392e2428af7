package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DennisG8153/apkfeat/internal/store"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func collect(s *store.Store) ([]Sample, error) {
	var out []Sample
	err := Walk(context.Background(), s, func(sm Sample) error {
		out = append(out, sm)
		return nil
	})
	return out, err
}

func TestWalkOrder(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	line := []byte("Permission: android.permission.INTERNET\n")
	writeFile(t, filepath.Join(root, "malicious_features", "b.txt"), line)
	writeFile(t, filepath.Join(root, "malicious_features", "a", "z.txt"), line)
	writeFile(t, filepath.Join(root, "benign_features", "y.txt"), line)
	writeFile(t, filepath.Join(root, "benign_features", "x.txt"), nil)
	writeFile(t, filepath.Join(root, "benign_features", ".x.txt.tmp-1"), line)
	writeFile(t, filepath.Join(root, "benign_features", "icon.png"),
		[]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"))
	writeFile(t, filepath.Join(root, "unique_features", "unique_permissions.txt"), line)

	samples, err := collect(store.New(root))
	req.NoError(err)

	var ids []string
	var labels []int
	for _, s := range samples {
		ids = append(ids, s.ID)
		labels = append(labels, s.Label)
	}
	req.Equal([]string{
		"benign_features/x.txt",
		"benign_features/y.txt",
		"malicious_features/a/z.txt",
		"malicious_features/b.txt",
	}, ids)
	req.Equal([]int{0, 0, 1, 1}, labels)
}

func TestWalkMissingSubCorpus(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "malicious_features", "m.txt"), []byte("URL: http://x.com\n"))
	samples, err := collect(store.New(root))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, 1, samples[0].Label)
}

func TestWalkCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "benign_features", "a.txt"), []byte("Intent: MAIN\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := 0
	err := Walk(ctx, store.New(root), func(Sample) error {
		n++
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, n)
}

func TestWalkDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sub", "s.txt"), []byte("API: a.b.c\n"))
	var got []Sample
	err := WalkDir(context.Background(), dir, -1, func(s Sample) error {
		got = append(got, s)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "sub/s.txt", got[0].ID)
	require.Equal(t, -1, got[0].Label)
}

func TestIsText(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "a.txt")
	writeFile(t, txt, []byte("Library: com.google.gson 2\n"))
	ok, err := IsText(txt)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = IsText(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

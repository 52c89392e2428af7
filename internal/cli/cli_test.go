package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestInstalledVersion(t *testing.T) {
	for in, want := range map[string]string{"dev": "0.0.0", "v1.4.2": "1.4.2", "1.2": "1.2.0"} {
		if got := installedVersion(in); got != want {
			t.Errorf("installedVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCommands(t *testing.T) {
	c := New("test")
	want := []string{"build", "encode", "fetch", "freeze", "migrate", "publish", "reduce", "stats", "up", "vectors"}
	for _, name := range want {
		cmd, _, err := c.rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestBuildFreezeEncode(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "benign_features", "a.txt"), "Permission: CAMERA\nURL: http://ads.mopub.com/x\n")
	cat := filepath.Join(t.TempDir(), "categorized")
	out := filepath.Join(t.TempDir(), "vectors.jsonl")

	for _, args := range [][]string{
		{"-s", "build", root, "--categorize", "--out", cat},
		{"-s", "freeze", cat},
		{"-s", "encode", root, "--vocab", cat, "--out", out},
	} {
		c := New("test")
		c.rootCmd.SetArgs(args)
		if err := c.rootCmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"sample":"benign_features/a.txt","label":0,"dim":2,"indices":[0,1],"values":[1,1]}` + "\n"
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestBuildCategorizeInPlaceFails(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "benign_features", "a.txt"), "API: a.b.c.d\n")
	c := New("test")
	c.rootCmd.SetArgs([]string{"-s", "build", root, "--categorize"})
	if err := c.rootCmd.Execute(); err == nil {
		t.Fatal("expected categorizing in place to fail")
	}
}

func TestEncodeBadgerVectors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "benign_features", "a.txt"), "Permission: CAMERA\n")
	writeFile(t, filepath.Join(root, "malicious_features", "b.txt"), "Permission: SEND_SMS\n")
	db := filepath.Join(t.TempDir(), "vectors.db")

	for _, args := range [][]string{
		{"-s", "build", root},
		{"-s", "encode", root, "--mode", "count", "--badger", db},
	} {
		c := New("test")
		c.rootCmd.SetArgs(args)
		if err := c.rootCmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	var buf bytes.Buffer
	c := New("test")
	c.rootCmd.SetOut(&buf)
	c.rootCmd.SetArgs([]string{"-s", "vectors", db, "malicious_features/b.txt", "--dense"})
	if err := c.rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	want := `{"sample":"malicious_features/b.txt","label":1,"dim":2,"dense":[0,1]}` + "\n"
	if buf.String() != want {
		t.Errorf("expected %s, got %s", want, buf.String())
	}

	buf.Reset()
	c = New("test")
	c.rootCmd.SetOut(&buf)
	c.rootCmd.SetArgs([]string{"-s", "vectors", db})
	if err := c.rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("expected 2 stored vectors, got %d:\n%s", n, buf.String())
	}

	c = New("test")
	c.rootCmd.SetArgs([]string{"-s", "encode", root, "--badger", db, "--dense"})
	if err := c.rootCmd.Execute(); err == nil {
		t.Error("expected --dense with --badger to be rejected")
	}
}

func TestPublishRequiresStore(t *testing.T) {
	t.Setenv("APKFEAT_S3_ENDPOINT", "")
	c := New("test")
	c.rootCmd.SetArgs([]string{"-s", "publish", t.TempDir(), "--name", "x"})
	if err := c.rootCmd.Execute(); err == nil {
		t.Fatal("expected error without an artifact store")
	}
}

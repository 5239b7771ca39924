package dotenv

import (
	"os"
	"path/filepath"
	"testing"
)

func unsetOnCleanup(t *testing.T, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})
}

func TestLoadFile_MissingFileIsNoop(t *testing.T) {
	t.Parallel()
	if err := LoadFile(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("LoadFile missing file error: %v", err)
	}
}

func TestLoadFile_LoadsValuesAndPreservesExisting(t *testing.T) {
	tempDir := t.TempDir()
	envPath := filepath.Join(tempDir, ".env")
	content := "" +
		"# comment\n" +
		"SPEAK_TEST_FROM_FILE=loaded\n" +
		"SPEAK_TEST_QUOTED=\"hello world\"\n" +
		"export SPEAK_TEST_EXPORTED=ok\n" +
		"SPEAK_TEST_EXISTING=from_file\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("SPEAK_TEST_EXISTING", "already_set")
	unsetOnCleanup(t, "SPEAK_TEST_FROM_FILE", "SPEAK_TEST_QUOTED", "SPEAK_TEST_EXPORTED")

	if err := LoadFile(envPath); err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}

	if got := os.Getenv("SPEAK_TEST_FROM_FILE"); got != "loaded" {
		t.Fatalf("SPEAK_TEST_FROM_FILE=%q, want %q", got, "loaded")
	}
	if got := os.Getenv("SPEAK_TEST_QUOTED"); got != "hello world" {
		t.Fatalf("SPEAK_TEST_QUOTED=%q, want %q", got, "hello world")
	}
	if got := os.Getenv("SPEAK_TEST_EXPORTED"); got != "ok" {
		t.Fatalf("SPEAK_TEST_EXPORTED=%q, want %q", got, "ok")
	}
	if got := os.Getenv("SPEAK_TEST_EXISTING"); got != "already_set" {
		t.Fatalf("SPEAK_TEST_EXISTING=%q, want existing value preserved", got)
	}
}

func TestLoadFiles_EarlierFileWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, ".env.local")
	second := filepath.Join(dir, ".env")
	if err := os.WriteFile(first, []byte("SPEAK_TEST_ORDER=local\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("SPEAK_TEST_ORDER=shared\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	unsetOnCleanup(t, "SPEAK_TEST_ORDER")

	if err := LoadFiles(first, filepath.Join(dir, "missing"), second); err != nil {
		t.Fatalf("LoadFiles error: %v", err)
	}
	if got := os.Getenv("SPEAK_TEST_ORDER"); got != "local" {
		t.Fatalf("SPEAK_TEST_ORDER=%q, want local", got)
	}
}

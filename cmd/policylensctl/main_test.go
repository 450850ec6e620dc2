package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"Pre-existing diseases", 10, "Pre-exi..."},
		{"ééééééééééé", 6, "ééé..."},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.n); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("AI_PROVIDER", "mock")
	t.Setenv("PORT", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	if err := root.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestSessionsCleanupOnMemory(t *testing.T) {
	if got := run(t, "sessions", "cleanup"); !strings.Contains(got, "removed 0 expired sessions") {
		t.Fatalf("output = %q", got)
	}
}

func TestClausesTopOnMemory(t *testing.T) {
	got := run(t, "clauses", "top", "-n", "5")
	if !strings.HasPrefix(got, "COUNT") {
		t.Fatalf("output = %q, want table header", got)
	}
}

package mapping

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, f := range names {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("package x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDefaults_AreValid(t *testing.T) {
	ms := Defaults()
	if len(ms) == 0 {
		t.Fatal("Defaults() is empty")
	}
	if err := Validate(ms); err != nil {
		t.Errorf("Validate(Defaults()) error = %v", err)
	}
	if ms[0].Source != "README.md" {
		t.Errorf("first default source = %q, want README.md", ms[0].Source)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		ms      []Mapping
		wantErr string
	}{
		{"valid", []Mapping{{Source: "a.go", Doc: "zh/content/a.md", Title: "A"}}, ""},
		{"missing source", []Mapping{{Doc: "d.md", Title: "D"}}, "source is required"},
		{"missing doc", []Mapping{{Source: "a.go", Title: "A"}}, "doc is required"},
		{"missing title", []Mapping{{Source: "a.go", Doc: "a.md"}}, "title is required"},
		{"absolute doc", []Mapping{{Source: "a.go", Doc: "/etc/a.md", Title: "A"}}, "must be a relative path"},
		{"escaping source", []Mapping{{Source: "../secret.go", Doc: "a.md", Title: "A"}}, "must be a relative path"},
		{"duplicate doc", []Mapping{
			{Source: "a.go", Doc: "zh/content/a.md", Title: "A"},
			{Source: "b.go", Doc: "zh/content/./a.md", Title: "B"},
		}, "already used by doc_mappings[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.ms)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestForSource(t *testing.T) {
	got := ForSource("internal/doc_status/checker.go")
	want := Mapping{
		Source: "internal/doc_status/checker.go",
		Doc:    "zh/content/internal/doc_status/checker.md",
		Title:  "Internal / Doc status / Checker",
	}
	if got != want {
		t.Errorf("ForSource() = %+v, want %+v", got, want)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "main.go", "internal/a/a.go", "internal/a/a_test.go", "internal/b/b.go", "docs/readme.txt")

	got, err := Scan(root, ScanOptions{
		Patterns: []string{"**/*.go"},
		Exclude:  []string{"**/*_test.go"},
		Existing: []Mapping{{Source: "internal/b/b.go", Doc: "zh/content/b.md", Title: "B"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if srcs := Sources(got); !slices.Equal(srcs, []string{"internal/a/a.go", "main.go"}) {
		t.Fatalf("Scan() sources = %v, want [internal/a/a.go main.go]", srcs)
	}
	if got[1].Doc != "zh/content/main.md" {
		t.Errorf("main.go doc = %q, want zh/content/main.md", got[1].Doc)
	}
}

func TestScan_NoMatches(t *testing.T) {
	got, err := Scan(t.TempDir(), ScanOptions{Patterns: []string{"**/*.rs"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Scan() = %v, want no mappings", got)
	}
}

func TestExcluding(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "pkg/a.go", "pkg/a_test.go")
	ms := []Mapping{ForSource("pkg/a.go"), ForSource("pkg/a_test.go"), ForSource("gone.go")}

	got, err := Excluding(root, ms, []string{"**/*_test.go"})
	if err != nil {
		t.Fatal(err)
	}
	if srcs := Sources(got); !slices.Equal(srcs, []string{"pkg/a.go", "gone.go"}) {
		t.Errorf("Excluding() sources = %v, want [pkg/a.go gone.go]", srcs)
	}

	all, err := Excluding(root, ms, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("Excluding(nil) kept %d mappings, want 3", len(all))
	}
}

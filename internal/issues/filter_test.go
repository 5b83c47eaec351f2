package issues

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		name      string
		diags     []string
		ignore    IgnoreList
		wantCount int
		wantText  string
	}{
		{"empty input", nil, DefaultIgnore(), 0, ""},
		{"nothing ignored", []string{"a.go:1:1: error: x", "a.go:2:1: error: y"}, nil, 2, "\na.go:1:1: error: x\na.go:2:1: error: y"},
		{"substring match", []string{"a.go:1:1: error: could not import fmt", "a.go:3:2: error: declared and not used: v"}, DefaultIgnore(), 1, "\na.go:3:2: error: declared and not used: v"},
		{"all ignored", []string{"undefined: helper"}, DefaultIgnore(), 0, ""},
		{"case sensitive", []string{"Could Not Import"}, DefaultIgnore(), 1, "\nCould Not Import"},
		{"not a regex", []string{"a+b"}, IgnoreList{"a.b"}, 1, "\na+b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tt.diags, tt.ignore)
			if got.Count != tt.wantCount {
				t.Errorf("Count = %d, want %d", got.Count, tt.wantCount)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
		})
	}
}

func TestFilter_CountMatchesSurvivors(t *testing.T) {
	diags := []string{"alpha", "beta", "gamma", "alphabet", "delta"}
	ignore := IgnoreList{"alp", "ta"}

	want := 0
	for _, d := range diags {
		keep := true
		for _, i := range ignore {
			if strings.Contains(d, i) {
				keep = false
			}
		}
		if keep {
			want++
		}
	}

	got := Filter(diags, ignore)
	if got.Count != want {
		t.Errorf("Count = %d, want %d", got.Count, want)
	}
	if strings.Count(got.Text, "\n") != got.Count {
		t.Errorf("Text %q has %d lines, want %d", got.Text, strings.Count(got.Text, "\n"), got.Count)
	}
}

func TestParse(t *testing.T) {
	input := `// comment
# hash
; semicolon
' quote
rem basic style

  could not import  
undefined: 
could not import
shadows
`
	list, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := []string{"could not import", "undefined:", "shadows"}
	if len(list) != len(want) {
		t.Fatalf("got %v, want %v", list, want)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Errorf("list[%d] = %q, want %q", i, list[i], want[i])
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ignore.txt")
	if err := os.WriteFile(path, []byte("# only one\nunused\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	list, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if len(list) != 1 || list[0] != "unused" {
		t.Errorf("list = %v, want [unused]", list)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultIgnore_NonEmpty(t *testing.T) {
	if len(DefaultIgnore()) == 0 {
		t.Error("default ignore list must not be empty")
	}
}

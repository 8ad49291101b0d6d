package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRewriteKey(t *testing.T) {
	in := "@article{oldkey123,\n  title={X}\n}\n"
	got := RewriteKey(in, "smith2022x")
	want := "@article{smith2022x,\n  title={X}\n}\n"
	if got != want {
		t.Errorf("RewriteKey() = %q, want %q", got, want)
	}
}

func TestRewriteKey_OnlyFirstEntry(t *testing.T) {
	in := "@article{one,\n}\n\n@misc{two,\n}\n"
	got := RewriteKey(in, "rewritten")
	if !strings.Contains(got, "@article{rewritten,") {
		t.Errorf("first key not rewritten: %q", got)
	}
	if !strings.Contains(got, "@misc{two,") {
		t.Errorf("second entry must be untouched: %q", got)
	}
}

func TestRewriteKey_NoEntry(t *testing.T) {
	in := "% just a comment\n"
	if got := RewriteKey(in, "key"); got != in {
		t.Errorf("RewriteKey() = %q, want input unchanged", got)
	}
}

func TestReadKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	content := "@article{doe2023scaling,\n  title={A}\n}\n\n@misc{ roe2021title ,\n}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	keys, err := ReadKeys(path)
	if err != nil {
		t.Fatalf("ReadKeys() error = %v", err)
	}
	for _, k := range []string{"doe2023scaling", "roe2021title"} {
		if !keys[k] {
			t.Errorf("keys missing %q: %v", k, keys)
		}
	}
}

func TestReadKeys_MissingFile(t *testing.T) {
	keys, err := ReadKeys(filepath.Join(t.TempDir(), "absent.bib"))
	if err != nil {
		t.Fatalf("ReadKeys() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys = %v, want empty set", keys)
	}
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "refs.bib")

	if err := Append(path, "@article{a,\n}\n\n\n"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := Append(path, "@misc{b,\n}"); err != nil {
		t.Fatalf("second Append() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "@article{a,\n}\n\n@misc{b,\n}\n\n"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
}
